package main

import (
	"context"
	"log"
	"os"

	"github.com/trezcool/shule/core"
	mongodb "github.com/trezcool/shule/storage/database/mongo"
)

var logger *log.Logger // todo: logger service

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf := core.NewConfig()

	// set up DB
	ctx, cancel := context.WithTimeout(context.Background(), conf.Database.Timeout)
	defer cancel()

	db, err := mongodb.Open(ctx, conf)
	errAndDie(err)
	defer func() { _ = db.Client().Disconnect(context.Background()) }()
	errAndDie(mongodb.EnsureIndexes(ctx, db))

	usrRepo := mongodb.NewUserRepository(db)

	// start CLI
	cli := commandLine{
		usrRepo:  usrRepo,
		subjRepo: mongodb.NewSubjectRepository(db),
		grdRepo:  mongodb.NewGradeRepository(db),
		grdRefs:  usrRepo,
		markRepo: mongodb.NewMarkRepository(db),
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
