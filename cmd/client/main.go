package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"tasklist/internal/client/api"
	"tasklist/internal/client/session"
)

const usage = `usage: tasklist-client [-server URL] <command> [args]

commands:
  register <name> <email> <password>   create an account
  login <email> <password>             log in and store the session token
  whoami                               show the current account
  list                                 list todos, newest first
  add <title>                          add a todo
  done <id>                            mark a todo completed
  rename <id> <title>                  change a todo title
  rm <id>                              delete a todo
  logout                               forget the stored session token
`

func main() {
	serverURL := flag.String("server", "http://localhost:8080", "tasklist server URL")
	dataDir := flag.String("data", defaultDataDir(), "directory for the local session store")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	sess, err := session.Open(filepath.Join(*dataDir, "session.db"))
	if err != nil {
		fatal("open session store: %v", err)
	}
	defer sess.Close()

	client := api.NewClient(*serverURL)
	if sess.Authenticated() {
		client.SetToken(sess.Token())
	}

	ctx := context.Background()

	switch cmd, rest := args[0], args[1:]; cmd {
	case "register":
		requireArgs(rest, 3)
		user, err := client.Register(ctx, rest[0], rest[1], rest[2])
		if err != nil {
			fatal("%v", err)
		}
		fmt.Printf("registered %s <%s> (id %d), now log in\n", user.Name, user.Email, user.ID)
	case "login":
		requireArgs(rest, 2)
		resp, err := client.Login(ctx, rest[0], rest[1])
		if err != nil {
			fatal("%v", err)
		}
		if err := sess.SetToken(resp.Token); err != nil {
			fatal("store session: %v", err)
		}
		fmt.Printf("logged in as %s <%s>\n", resp.User.Name, resp.User.Email)
	case "whoami":
		user := sess.User()
		if user == nil {
			fmt.Println("not logged in")
			return
		}
		fmt.Printf("%s <%s> (id %d)\n", user.Name, user.Email, user.ID)
	case "list":
		todos, err := client.ListTodos(ctx)
		if err != nil {
			fatal("%v", err)
		}
		if len(todos) == 0 {
			fmt.Println("no todos")
			return
		}
		for _, todo := range todos {
			mark := " "
			if todo.Completed {
				mark = "x"
			}
			fmt.Printf("[%s] %d %s\n", mark, todo.ID, todo.Title)
		}
	case "add":
		requireArgs(rest, 1)
		todo, err := client.CreateTodo(ctx, rest[0])
		if err != nil {
			fatal("%v", err)
		}
		fmt.Printf("added %d %s\n", todo.ID, todo.Title)
	case "done":
		requireArgs(rest, 1)
		completed := true
		todo, err := client.UpdateTodo(ctx, parseID(rest[0]), nil, &completed)
		if err != nil {
			fatal("%v", err)
		}
		fmt.Printf("completed %d %s\n", todo.ID, todo.Title)
	case "rename":
		requireArgs(rest, 2)
		title := rest[1]
		todo, err := client.UpdateTodo(ctx, parseID(rest[0]), &title, nil)
		if err != nil {
			fatal("%v", err)
		}
		fmt.Printf("renamed %d to %s\n", todo.ID, todo.Title)
	case "rm":
		requireArgs(rest, 1)
		id := parseID(rest[0])
		if err := client.DeleteTodo(ctx, id); err != nil {
			fatal("%v", err)
		}
		fmt.Printf("deleted %d\n", id)
	case "logout":
		if err := sess.Logout(); err != nil {
			fatal("logout: %v", err)
		}
		fmt.Println("logged out")
	default:
		flag.Usage()
		os.Exit(2)
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".tasklist"
	}
	return filepath.Join(home, ".tasklist")
}

func requireArgs(args []string, n int) {
	if len(args) < n {
		flag.Usage()
		os.Exit(2)
	}
}

func parseID(s string) int64 {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		fatal("invalid todo id %q", s)
	}
	return id
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
