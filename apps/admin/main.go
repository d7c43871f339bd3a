package main

import (
	"context"
	"log"
	"os"

	dig_container "github.com/festportal/backend/apps/api/di/dig"
	"github.com/festportal/backend/core"
	"github.com/festportal/backend/core/registration"
	"github.com/festportal/backend/storage/database"
)

var logger *log.Logger

func main() {
	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	cli := commandLine{out: os.Stdout}

	if needsService(os.Args) {
		c := dig_container.New()
		errAndDie(c.Invoke(func(svc *registration.Service, storage *dig_container.Storage) {
			cli.registrations = svc
			if storage.DB != nil {
				cli.db = storage.DB.DB
			}
		}))
	} else if len(os.Args) > 1 && os.Args[1] == "migrate" {
		conf := core.NewConfig()
		if conf.Database.Engine != "memory" {
			// set up DB
			db, err := database.Open(context.Background(), conf)
			errAndDie(err)
			defer db.Close()
			cli.db = db.DB
		}
	}

	// start CLI
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
