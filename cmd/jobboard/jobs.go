package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/quantumedge/backend/internal/models"
	"github.com/quantumedge/backend/pkg/jobboard"
)

func jobsCommand() *cli.Command {
	return &cli.Command{
		Name:  "jobs",
		Usage: "browse and manage job postings",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "list every job, optionally filtered",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "query", Aliases: []string{"q"}, Usage: "match title, description or skills"},
				},
				Action: func(c *cli.Context) error {
					client, err := newClient(c)
					if err != nil {
						return err
					}
					jobs, err := client.ListJobs(c.Context)
					if err != nil {
						return err
					}
					printJobs(jobboard.FilterJobs(jobs, c.String("query")))
					return nil
				},
			},
			{
				Name:  "mine",
				Usage: "list the jobs you posted, newest first",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "query", Aliases: []string{"q"}},
				},
				Action: func(c *cli.Context) error {
					client, err := newClient(c)
					if err != nil {
						return err
					}
					user := client.Session().User()
					if user == nil {
						return cli.Exit("not signed in", 1)
					}
					jobs, err := client.ListJobsByOwner(c.Context, user.Email)
					if err != nil {
						return err
					}
					printJobs(jobboard.FilterJobs(jobs, c.String("query")))
					return nil
				},
			},
			{
				Name:      "show",
				Usage:     "show one job",
				ArgsUsage: "<id>",
				Action: func(c *cli.Context) error {
					id, err := oneArg(c)
					if err != nil {
						return err
					}
					client, err := newClient(c)
					if err != nil {
						return err
					}
					job, err := client.GetJob(c.Context, id)
					if err != nil {
						return err
					}
					printJob(job)
					return nil
				},
			},
			{
				Name:  "create",
				Usage: "post a new job",
				Flags: jobFlags(true),
				Action: func(c *cli.Context) error {
					client, err := newClient(c)
					if err != nil {
						return err
					}
					user := client.Session().User()
					if user == nil {
						return cli.Exit("not signed in", 1)
					}
					price, err := priceFlags(c)
					if err != nil {
						return err
					}
					deadline, err := deadlineFlag(c)
					if err != nil {
						return err
					}
					job, err := client.CreateJob(c.Context, models.CreateJobRequest{
						Title:           c.String("title"),
						Description:     c.String("description"),
						Price:           price,
						JobType:         c.String("type"),
						Remote:          c.Bool("remote"),
						Location:        c.String("location"),
						ExperienceLevel: c.String("level"),
						FreelancerCount: c.Int("freelancers"),
						Skills:          models.ParseSkills(c.String("skills")),
						Deadline:        deadline,
						Status:          c.String("status"),
						CreatorEmail:    user.Email,
						CreatorName:     user.DisplayName,
					})
					if err != nil {
						return err
					}
					fmt.Printf("Created job %s\n", job.ID.Hex())
					return nil
				},
			},
			{
				Name:      "edit",
				Usage:     "change fields of a job you posted",
				ArgsUsage: "<id>",
				Flags:     jobFlags(false),
				Action: func(c *cli.Context) error {
					id, err := oneArg(c)
					if err != nil {
						return err
					}
					req, err := updateRequest(c)
					if err != nil {
						return err
					}
					client, err := newClient(c)
					if err != nil {
						return err
					}
					job, err := client.UpdateJob(c.Context, id, req)
					if err != nil {
						return err
					}
					printJob(job)
					return nil
				},
			},
			{
				Name:      "delete",
				Usage:     "delete a job you posted",
				ArgsUsage: "<id>",
				Action: func(c *cli.Context) error {
					id, err := oneArg(c)
					if err != nil {
						return err
					}
					client, err := newClient(c)
					if err != nil {
						return err
					}
					res, err := client.DeleteJob(c.Context, id)
					if err != nil {
						return err
					}
					fmt.Printf("Deleted %d job(s)\n", res.DeletedCount)
					return nil
				},
			},
		},
	}
}

func jobFlags(create bool) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "title", Required: create},
		&cli.StringFlag{Name: "description", Required: create},
		&cli.Float64Flag{Name: "budget", Usage: "fixed budget"},
		&cli.StringFlag{Name: "range", Usage: `price range such as "$10-$20/hr"`},
		&cli.StringFlag{Name: "type", Usage: "fixed, hourly, full-time, part-time or contract"},
		&cli.BoolFlag{Name: "remote"},
		&cli.StringFlag{Name: "location"},
		&cli.StringFlag{Name: "level", Usage: "entry, intermediate, senior or expert"},
		&cli.IntFlag{Name: "freelancers", Usage: "number of freelancers wanted"},
		&cli.StringFlag{Name: "skills", Usage: "comma-separated"},
		&cli.StringFlag{Name: "deadline", Usage: "YYYY-MM-DD"},
		&cli.StringFlag{Name: "status", Usage: "active or closed"},
	}
}

func updateRequest(c *cli.Context) (models.UpdateJobRequest, error) {
	var req models.UpdateJobRequest
	str := func(name string) *string {
		if !c.IsSet(name) {
			return nil
		}
		v := c.String(name)
		return &v
	}
	req.Title = str("title")
	req.Description = str("description")
	req.JobType = str("type")
	req.Location = str("location")
	req.ExperienceLevel = str("level")
	req.Status = str("status")
	if c.IsSet("remote") {
		v := c.Bool("remote")
		req.Remote = &v
	}
	if c.IsSet("freelancers") {
		v := c.Int("freelancers")
		req.FreelancerCount = &v
	}
	if c.IsSet("skills") {
		req.Skills = models.ParseSkills(c.String("skills"))
	}

	price, err := priceFlags(c)
	if err != nil {
		return req, err
	}
	req.Price = price
	deadline, err := deadlineFlag(c)
	if err != nil {
		return req, err
	}
	req.Deadline = deadline
	return req, nil
}

func priceFlags(c *cli.Context) (*models.Price, error) {
	switch {
	case c.IsSet("budget") && c.IsSet("range"):
		return nil, cli.Exit("use either --budget or --range, not both", 2)
	case c.IsSet("budget"):
		v := c.Float64("budget")
		return &models.Price{Fixed: &v}, nil
	case c.IsSet("range"):
		return &models.Price{Range: c.String("range")}, nil
	default:
		return nil, nil
	}
}

func deadlineFlag(c *cli.Context) (*time.Time, error) {
	if !c.IsSet("deadline") {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", c.String("deadline"))
	if err != nil {
		return nil, cli.Exit("deadline must be YYYY-MM-DD", 2)
	}
	return &t, nil
}

func oneArg(c *cli.Context) (string, error) {
	if c.NArg() != 1 {
		return "", cli.Exit("expected one job id", 2)
	}
	return c.Args().First(), nil
}

func printJobs(jobs []models.Job) {
	if len(jobs) == 0 {
		fmt.Println("No jobs found")
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tPRICE\tTYPE\tSTATUS\tPOSTED BY")
	for i := range jobs {
		j := &jobs[i]
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			j.ID.Hex(), j.Title, j.Price.String(), j.JobType, j.Status, j.CreatorName)
	}
	w.Flush()
}

func printJob(j *models.Job) {
	fmt.Printf("%s\n%s\n\n", j.Title, strings.Repeat("=", len(j.Title)))
	fmt.Printf("%s\n\n", j.Description)
	fmt.Printf("ID:          %s\n", j.ID.Hex())
	fmt.Printf("Price:       %s\n", j.Price.String())
	fmt.Printf("Type:        %s\n", j.JobType)
	if j.Remote {
		fmt.Println("Location:    remote")
	} else if j.Location != "" {
		fmt.Printf("Location:    %s\n", j.Location)
	}
	if j.ExperienceLevel != "" {
		fmt.Printf("Level:       %s\n", j.ExperienceLevel)
	}
	fmt.Printf("Freelancers: %d\n", j.FreelancerCount)
	fmt.Printf("Applicants:  %d\n", j.ApplicantsCount)
	if len(j.Skills) > 0 {
		fmt.Printf("Skills:      %s\n", strings.Join(j.Skills, ", "))
	}
	if j.Deadline != nil {
		fmt.Printf("Deadline:    %s\n", j.Deadline.Format("2006-01-02"))
	}
	fmt.Printf("Status:      %s\n", j.Status)
	fmt.Printf("Posted by:   %s <%s>\n", j.CreatorName, j.CreatorEmail)
	fmt.Printf("Posted:      %s\n", j.CreatedAt.Local().Format(time.RFC1123))
}
