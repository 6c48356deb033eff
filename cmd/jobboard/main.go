package main

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/quantumedge/backend/pkg/jobboard"
)

func main() {
	godotenv.Load()

	app := &cli.App{
		Name:  "jobboard",
		Usage: "post and browse jobs from the terminal",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "api",
				Value:   "http://localhost:8080",
				Usage:   "base URL of the job board API",
				EnvVars: []string{"JOBBOARD_API"},
			},
			&cli.StringFlag{
				Name:    "session",
				Value:   jobboard.DefaultSessionPath(),
				Usage:   "file holding the signed-in session",
				EnvVars: []string{"JOBBOARD_SESSION"},
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Value: 30 * time.Second,
				Usage: "request timeout",
			},
		},
		Commands: []*cli.Command{
			registerCommand(),
			loginCommand(),
			googleCommand(),
			logoutCommand(),
			profileCommand(),
			jobsCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// newClient builds an API client bound to the saved session.
func newClient(c *cli.Context) (*jobboard.Client, error) {
	session, err := jobboard.NewSession(jobboard.NewFileTokenStore(c.String("session")))
	if err != nil {
		return nil, err
	}
	client := jobboard.NewClient(c.String("api"), session, c.Duration("timeout"))
	client.OnUnauthorized = func() {
		log.Println("session ended, please log in again")
	}
	return client, nil
}
