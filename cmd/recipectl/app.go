package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/geocoder89/recipehub/internal/client"
	"github.com/geocoder89/recipehub/internal/domain/comment"
	"github.com/geocoder89/recipehub/internal/domain/recipe"
	"github.com/geocoder89/recipehub/internal/domain/user"
)

const defaultServer = "http://localhost:5000"

var (
	errUsage       = errors.New("usage")
	errNotLoggedIn = errors.New("not logged in; run `recipectl login` first")
)

const usage = `usage: recipectl [-server URL] [-session FILE] <command> [args]

commands:
  register [-name N] [-email E] [-password P] [-role R]
  login    [-email E] [-password P]
  logout
  whoami

  recipes  list | get ID | create -title T -ingredients I -instructions S
           update ID -title T -ingredients I -instructions S | delete ID
  comments list | recipe ID | create -recipe ID -text T
           update ID -text T | delete ID
  users    list | get ID | create -name N -email E -password P [-role R]
           update ID -name N -email E -password P [-role R] | delete ID
`

type app struct {
	in     *bufio.Reader
	out    io.Writer
	errOut io.Writer

	server  string
	session *client.SessionFile
	now     func() time.Time
}

func (a *app) run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("recipectl", flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	fs.Usage = func() { fmt.Fprint(a.errOut, usage) }

	server := fs.String("server", os.Getenv("RECIPEHUB_URL"), "API base URL (env RECIPEHUB_URL)")
	sessionPath := fs.String("session", "", "session file (default: user config dir)")

	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	if a.now == nil {
		a.now = time.Now
	}
	a.server = *server

	path := *sessionPath
	if path == "" {
		p, err := client.DefaultSessionPath()
		if err != nil {
			return fmt.Errorf("locate session file: %w", err)
		}
		path = p
	}
	a.session = client.NewSessionFile(path)

	rest := fs.Args()
	if len(rest) == 0 {
		fs.Usage()
		return errUsage
	}

	cmd, rest := rest[0], rest[1:]
	switch cmd {
	case "register":
		return a.register(ctx, rest)
	case "login":
		return a.login(ctx, rest)
	case "logout":
		return a.logout()
	case "whoami":
		return a.whoami(ctx)
	case "recipes":
		return a.recipes(ctx, rest)
	case "comments":
		return a.comments(ctx, rest)
	case "users":
		return a.users(ctx, rest)
	case "help":
		fmt.Fprint(a.out, usage)
		return nil
	default:
		fmt.Fprintf(a.errOut, "unknown command %q\n\n", cmd)
		fs.Usage()
		return errUsage
	}
}

// baseURL prefers the flag or env, then whatever server the session was made against.
func (a *app) baseURL(s client.Session) string {
	switch {
	case a.server != "":
		return a.server
	case s.BaseURL != "":
		return s.BaseURL
	default:
		return defaultServer
	}
}

func (a *app) anonymous() (*client.Client, string, error) {
	s, err := a.session.Load()
	if err != nil {
		return nil, "", err
	}
	base := a.baseURL(s)
	return client.New(base), base, nil
}

func (a *app) authed() (*client.Client, client.Session, error) {
	s, err := a.session.Load()
	if err != nil {
		return nil, client.Session{}, err
	}
	if !s.Active(a.now()) {
		return nil, client.Session{}, errNotLoggedIn
	}
	return client.New(a.baseURL(s), client.WithToken(s.Token)), s, nil
}

func (a *app) print(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (a *app) register(ctx context.Context, args []string) error {
	fs := a.flags("register")
	name := fs.String("name", "", "display name")
	email := fs.String("email", "", "email")
	password := fs.String("password", "", "password (prompted when empty)")
	role := fs.String("role", "", "user or admin")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	req := user.CreateRequest{Name: *name, Email: *email, Password: *password, Role: *role}
	if err := a.fillCredentials(&req.Name, &req.Email, &req.Password); err != nil {
		return err
	}

	c, _, err := a.anonymous()
	if err != nil {
		return err
	}

	id, err := c.Register(ctx, req)
	if err != nil {
		return err
	}
	return a.print(map[string]any{"message": "registered", "userId": id})
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := a.flags("login")
	email := fs.String("email", "", "email")
	password := fs.String("password", "", "password (prompted when empty)")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	if err := a.fillCredentials(nil, email, password); err != nil {
		return err
	}

	c, base, err := a.anonymous()
	if err != nil {
		return err
	}

	res, err := c.Login(ctx, *email, *password)
	if err != nil {
		return err
	}

	s, err := client.SessionFromToken(base, res.Token)
	if err != nil {
		return err
	}
	if err := a.session.Save(s); err != nil {
		return err
	}

	fmt.Fprintf(a.out, "logged in as user %d (%s) until %s\n", s.UserID, s.Role, res.ExpiresAt.Local().Format(time.RFC1123))
	return nil
}

func (a *app) logout() error {
	if err := a.session.Clear(); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "logged out")
	return nil
}

func (a *app) whoami(ctx context.Context) error {
	c, _, err := a.authed()
	if err != nil {
		return err
	}
	me, err := c.Me(ctx)
	if err != nil {
		return err
	}
	return a.print(me)
}

func (a *app) recipes(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return a.usageErr("recipes needs a subcommand")
	}
	c, _, err := a.authed()
	if err != nil {
		return err
	}

	sub, args := args[0], args[1:]
	switch sub {
	case "list":
		list, err := c.ListRecipes(ctx)
		if err != nil {
			return err
		}
		return a.print(list)

	case "get":
		id, _, err := a.idArg(args)
		if err != nil {
			return err
		}
		r, err := c.GetRecipe(ctx, id)
		if err != nil {
			return err
		}
		return a.print(r)

	case "create":
		fs := a.flags("recipes create")
		req := recipeFlags(fs)
		if err := fs.Parse(args); err != nil {
			return errUsage
		}
		id, err := c.CreateRecipe(ctx, recipe.CreateRequest(*req))
		if err != nil {
			return err
		}
		return a.print(map[string]any{"message": "recipe created", "recipeId": id})

	case "update":
		id, rest, err := a.idArg(args)
		if err != nil {
			return err
		}
		fs := a.flags("recipes update")
		req := recipeFlags(fs)
		if err := fs.Parse(rest); err != nil {
			return errUsage
		}
		r, err := c.UpdateRecipe(ctx, id, *req)
		if err != nil {
			return err
		}
		return a.print(r)

	case "delete":
		id, _, err := a.idArg(args)
		if err != nil {
			return err
		}
		if err := c.DeleteRecipe(ctx, id); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "recipe %d deleted\n", id)
		return nil
	}
	return a.usageErr("unknown recipes subcommand " + strconv.Quote(sub))
}

func recipeFlags(fs *flag.FlagSet) *recipe.UpdateRequest {
	req := &recipe.UpdateRequest{}
	fs.StringVar(&req.Title, "title", "", "title")
	fs.StringVar(&req.Ingredients, "ingredients", "", "ingredients")
	fs.StringVar(&req.Instructions, "instructions", "", "instructions")
	return req
}

func (a *app) comments(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return a.usageErr("comments needs a subcommand")
	}
	c, _, err := a.authed()
	if err != nil {
		return err
	}

	sub, args := args[0], args[1:]
	switch sub {
	case "list":
		list, err := c.ListComments(ctx)
		if err != nil {
			return err
		}
		return a.print(list)

	case "recipe":
		id, _, err := a.idArg(args)
		if err != nil {
			return err
		}
		list, err := c.ListRecipeComments(ctx, id)
		if err != nil {
			return err
		}
		return a.print(list)

	case "create":
		fs := a.flags("comments create")
		recipeID := fs.Int64("recipe", 0, "recipe id")
		text := fs.String("text", "", "comment text")
		if err := fs.Parse(args); err != nil {
			return errUsage
		}
		id, err := c.CreateComment(ctx, comment.CreateRequest{Comment: *text, RecipeID: *recipeID})
		if err != nil {
			return err
		}
		return a.print(map[string]any{"message": "comment created", "commentId": id})

	case "update":
		id, rest, err := a.idArg(args)
		if err != nil {
			return err
		}
		fs := a.flags("comments update")
		text := fs.String("text", "", "comment text")
		if err := fs.Parse(rest); err != nil {
			return errUsage
		}
		cm, err := c.UpdateComment(ctx, id, comment.UpdateRequest{Comment: *text})
		if err != nil {
			return err
		}
		return a.print(cm)

	case "delete":
		id, _, err := a.idArg(args)
		if err != nil {
			return err
		}
		if err := c.DeleteComment(ctx, id); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "comment %d deleted\n", id)
		return nil
	}
	return a.usageErr("unknown comments subcommand " + strconv.Quote(sub))
}

func (a *app) users(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return a.usageErr("users needs a subcommand")
	}
	c, s, err := a.authed()
	if err != nil {
		return err
	}
	if !s.IsAdmin() {
		fmt.Fprintln(a.errOut, "warning: session is not an admin; the server will likely refuse")
	}

	sub, args := args[0], args[1:]
	switch sub {
	case "list":
		list, err := c.ListUsers(ctx)
		if err != nil {
			return err
		}
		return a.print(list)

	case "get":
		id, _, err := a.idArg(args)
		if err != nil {
			return err
		}
		u, err := c.GetUser(ctx, id)
		if err != nil {
			return err
		}
		return a.print(u)

	case "create":
		fs := a.flags("users create")
		req := userFlags(fs)
		if err := fs.Parse(args); err != nil {
			return errUsage
		}
		id, err := c.CreateUser(ctx, user.CreateRequest(*req))
		if err != nil {
			return err
		}
		return a.print(map[string]any{"message": "user created", "userId": id})

	case "update":
		id, rest, err := a.idArg(args)
		if err != nil {
			return err
		}
		fs := a.flags("users update")
		req := userFlags(fs)
		if err := fs.Parse(rest); err != nil {
			return errUsage
		}
		u, err := c.UpdateUser(ctx, id, *req)
		if err != nil {
			return err
		}
		return a.print(u)

	case "delete":
		id, _, err := a.idArg(args)
		if err != nil {
			return err
		}
		if err := c.DeleteUser(ctx, id); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "user %d deleted\n", id)
		return nil
	}
	return a.usageErr("unknown users subcommand " + strconv.Quote(sub))
}

func userFlags(fs *flag.FlagSet) *user.UpdateRequest {
	req := &user.UpdateRequest{}
	fs.StringVar(&req.Name, "name", "", "display name")
	fs.StringVar(&req.Email, "email", "", "email")
	fs.StringVar(&req.Password, "password", "", "password")
	fs.StringVar(&req.Role, "role", "", "user or admin")
	return req
}

func (a *app) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	return fs
}

// idArg takes the leading positional id; flags for the subcommand follow it.
func (a *app) idArg(args []string) (int64, []string, error) {
	if len(args) == 0 {
		return 0, nil, a.usageErr("missing ID")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, nil, a.usageErr("invalid ID " + strconv.Quote(args[0]))
	}
	return id, args[1:], nil
}

func (a *app) usageErr(msg string) error {
	fmt.Fprintf(a.errOut, "%s\n\n%s", msg, usage)
	return errUsage
}

// fillCredentials prompts for anything not given on the command line. name may be nil.
func (a *app) fillCredentials(name, email, password *string) error {
	var err error
	if name != nil && strings.TrimSpace(*name) == "" {
		if *name, err = promptLine(a.in, a.errOut, "Name"); err != nil {
			return err
		}
	}
	if strings.TrimSpace(*email) == "" {
		if *email, err = promptLine(a.in, a.errOut, "Email"); err != nil {
			return err
		}
	}
	if *password == "" {
		if *password, err = promptPassword(a.errOut); err != nil {
			return err
		}
	}
	return nil
}
