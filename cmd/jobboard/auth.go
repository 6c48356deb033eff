package main

import (
	"bufio"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/quantumedge/backend/internal/models"
)

func registerCommand() *cli.Command {
	return &cli.Command{
		Name:  "register",
		Usage: "create an account with email and password",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "email", Required: true},
			&cli.StringFlag{Name: "password", Usage: "prompted for when omitted"},
			&cli.StringFlag{Name: "name", Usage: "display name"},
			&cli.StringFlag{Name: "photo-url"},
		},
		Action: func(c *cli.Context) error {
			client, err := newClient(c)
			if err != nil {
				return err
			}
			password, err := flagOrPrompt(c, "password", "Password: ")
			if err != nil {
				return err
			}
			user, err := client.Register(c.Context, models.RegisterRequest{
				Email:       c.String("email"),
				Password:    password,
				DisplayName: c.String("name"),
				PhotoURL:    c.String("photo-url"),
			})
			if err != nil {
				return err
			}
			fmt.Printf("Registered and signed in as %s\n", user.Email)
			return nil
		},
	}
}

func loginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "sign in with email and password",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "email", Required: true},
			&cli.StringFlag{Name: "password", Usage: "prompted for when omitted"},
		},
		Action: func(c *cli.Context) error {
			client, err := newClient(c)
			if err != nil {
				return err
			}
			password, err := flagOrPrompt(c, "password", "Password: ")
			if err != nil {
				return err
			}
			user, err := client.Login(c.Context, c.String("email"), password)
			if err != nil {
				return err
			}
			fmt.Printf("Signed in as %s\n", user.Email)
			return nil
		},
	}
}

func googleCommand() *cli.Command {
	return &cli.Command{
		Name:  "google",
		Usage: "sign in with a Google account",
		Action: func(c *cli.Context) error {
			client, err := newClient(c)
			if err != nil {
				return err
			}
			user, err := client.LoginWithProvider(c.Context, func(authURL string) (string, error) {
				fmt.Printf("Open this URL in a browser and approve access:\n\n  %s\n\n", authURL)
				return prompt("Paste the code parameter from the redirect: ")
			})
			if err != nil {
				return err
			}
			fmt.Printf("Signed in as %s\n", user.Email)
			return nil
		},
	}
}

func logoutCommand() *cli.Command {
	return &cli.Command{
		Name:  "logout",
		Usage: "end the current session",
		Action: func(c *cli.Context) error {
			client, err := newClient(c)
			if err != nil {
				return err
			}
			if err := client.Logout(c.Context); err != nil {
				return err
			}
			fmt.Println("Signed out")
			return nil
		},
	}
}

func profileCommand() *cli.Command {
	return &cli.Command{
		Name:  "profile",
		Usage: "show or change your profile",
		Action: func(c *cli.Context) error {
			client, err := newClient(c)
			if err != nil {
				return err
			}
			user, err := client.Me(c.Context)
			if err != nil {
				return err
			}
			printUser(user)
			return nil
		},
		Subcommands: []*cli.Command{
			{
				Name:  "set",
				Usage: "update display name and photo URL",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name"},
					&cli.StringFlag{Name: "photo-url"},
				},
				Action: func(c *cli.Context) error {
					client, err := newClient(c)
					if err != nil {
						return err
					}
					var req models.ProfileRequest
					if c.IsSet("name") {
						v := c.String("name")
						req.DisplayName = &v
					}
					if c.IsSet("photo-url") {
						v := c.String("photo-url")
						req.PhotoURL = &v
					}
					if req.DisplayName == nil && req.PhotoURL == nil {
						return cli.Exit("nothing to change: pass --name and/or --photo-url", 2)
					}
					user, err := client.UpdateProfile(c.Context, req)
					if err != nil {
						return err
					}
					printUser(user)
					return nil
				},
			},
			{
				Name:      "photo",
				Usage:     "upload a profile photo",
				ArgsUsage: "<image file>",
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return cli.Exit("expected one image file", 2)
					}
					data, err := os.ReadFile(c.Args().First())
					if err != nil {
						return err
					}
					client, err := newClient(c)
					if err != nil {
						return err
					}
					user, err := client.UploadPhoto(c.Context, data, http.DetectContentType(data))
					if err != nil {
						return err
					}
					printUser(user)
					return nil
				},
			},
		},
	}
}

func printUser(u *models.User) {
	fmt.Printf("ID:       %s\n", u.ID)
	fmt.Printf("Email:    %s\n", u.Email)
	fmt.Printf("Name:     %s\n", u.DisplayName)
	fmt.Printf("Photo:    %s\n", u.PhotoURL)
	fmt.Printf("Provider: %s\n", u.Provider)
}

func flagOrPrompt(c *cli.Context, name, label string) (string, error) {
	if v := c.String(name); v != "" {
		return v, nil
	}
	return prompt(label)
}

var stdin = bufio.NewReader(os.Stdin)

func prompt(label string) (string, error) {
	fmt.Print(label)
	line, err := stdin.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
