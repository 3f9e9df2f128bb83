package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/pflag"
	"go.uber.org/dig"
	"golang.org/x/term"

	"github.com/trezcool/eduverse/core"
	"github.com/trezcool/eduverse/core/attendance"
	"github.com/trezcool/eduverse/core/auth"
	"github.com/trezcool/eduverse/core/class"
	"github.com/trezcool/eduverse/core/dashboard"
	"github.com/trezcool/eduverse/core/exam"
	"github.com/trezcool/eduverse/core/fee"
	"github.com/trezcool/eduverse/core/notice"
	"github.com/trezcool/eduverse/core/settings"
	"github.com/trezcool/eduverse/core/user"
	"github.com/trezcool/eduverse/storage/kv"
	"github.com/trezcool/eduverse/storage/seed"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

// params are the dependencies of the command line.
type params struct {
	dig.In

	Logger     core.Logger
	Store      kv.Store
	Seeder     *seed.Seeder
	Auth       *auth.Manager
	Users      *user.Service
	Classes    *class.Service
	Exams      *exam.Service
	Attendance *attendance.Service
	Fees       *fee.Service
	Notices    *notice.Service
	Settings   *settings.Service
	Dashboard  *dashboard.Service
}

type commandLine struct {
	params
	out       io.Writer
	format    string
	closeOnce sync.Once
}

func newCommandLine(p params, out io.Writer) *commandLine {
	return &commandLine{params: p, out: out, format: formatTable}
}

// command is one subcommand. setup registers its flags and returns the function running it.
type command struct {
	summary string
	setup   func(fs *pflag.FlagSet) func(ctx context.Context) error
}

func (cli *commandLine) commands() map[string]command {
	return map[string]command{
		"seed":       {summary: "seed the demo school (wipes the store with --force)", setup: cli.seedCmd},
		"login":      {summary: "log in; the password is prompted", setup: cli.loginCmd},
		"logout":     {summary: "log out", setup: cli.logoutCmd},
		"whoami":     {summary: "show the logged in user", setup: cli.whoamiCmd},
		"register":   {summary: "create an account and log in; the password is prompted", setup: cli.registerCmd},
		"profile":    {summary: "show or edit your profile", setup: cli.profileCmd},
		"users":      {summary: "list users (admin)", setup: cli.usersCmd},
		"classes":    {summary: "list classes", setup: cli.classesCmd},
		"exams":      {summary: "list exams", setup: cli.examsCmd},
		"roster":     {summary: "show the attendance roster of a class", setup: cli.rosterCmd},
		"mark":       {summary: "save the attendance of a class", setup: cli.markCmd},
		"fees":       {summary: "list fees", setup: cli.feesCmd},
		"pay":        {summary: "record a payment (accountant)", setup: cli.payCmd},
		"notices":    {summary: "show the notice board", setup: cli.noticesCmd},
		"notice-add": {summary: "publish a notice", setup: cli.noticeAddCmd},
		"settings":   {summary: "show or edit the system settings", setup: cli.settingsCmd},
		"dashboard":  {summary: "show your dashboard", setup: cli.dashboardCmd},
	}
}

func (cli *commandLine) printUsage() {
	cmds := cli.commands()
	names := make([]string, 0, len(cmds))
	for name := range cmds {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  eduverse COMMAND [flags] [--output table|yaml|json]")
	fmt.Fprintln(cli.out)
	fmt.Fprintln(cli.out, "Commands:")
	tw := tabwriter.NewWriter(cli.out, 0, 0, 2, ' ', 0)
	for _, name := range names {
		fmt.Fprintf(tw, "  %s\t%s\n", name, cmds[name].summary)
	}
	_ = tw.Flush()
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}
	cmd, ok := cli.commands()[args[1]]
	if !ok {
		cli.printUsage()
		return errHelp
	}

	fs := pflag.NewFlagSet(args[1], pflag.ContinueOnError)
	fs.SetOutput(cli.out)
	output := fs.StringP("output", "o", formatTable, "output format: table, yaml or json")
	runCmd := cmd.setup(fs)
	if err := fs.Parse(args[2:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return errHelp
		}
		return err
	}
	switch *output {
	case formatTable, formatYAML, formatJSON:
		cli.format = *output
	default:
		fs.Usage()
		return errHelp
	}

	ctx := context.Background()
	if err := cli.Auth.Init(ctx); err != nil {
		return err
	}
	defer cli.Auth.Dispose()
	return runCmd(ctx)
}

// session returns the logged in user.
func (cli *commandLine) session() (user.Session, error) {
	sess, ok := cli.Auth.Current()
	if !ok {
		return user.Session{}, auth.ErrNoSession
	}
	return sess, nil
}

func (cli *commandLine) readPassword(prompt string) (string, error) {
	fmt.Fprint(cli.out, prompt)
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cli.out)
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}

// printError prints field errors one per line.
func (cli *commandLine) printError(w io.Writer, err error) {
	var verr *core.ValidationError
	if errors.As(err, &verr) {
		fmt.Fprintf(w, "error: %v\n", verr.Err)
		for _, f := range verr.Fields {
			fmt.Fprintf(w, "  %s: %s\n", f.Field, f.Error)
		}
		return
	}
	switch {
	case errors.Is(err, auth.ErrNoSession):
		fmt.Fprintln(w, "error: not logged in; run `eduverse login --email EMAIL`")
	case isUserError(err):
		fmt.Fprintf(w, "error: %v\n", err)
	default:
		cli.Logger.Error("cli: command failed", err)
		fmt.Fprintf(w, "error: %v\n", err)
	}
}

// isUserError reports whether err is an expected outcome of bad input rather than a failure.
func isUserError(err error) bool {
	for _, target := range []error{
		auth.ErrUserNotFound, auth.ErrInvalidCredentials, auth.ErrDuplicateEmail, auth.ErrRegistrationClosed,
		core.ErrForbidden, user.ErrNotFound, class.ErrNotFound, exam.ErrNotFound, fee.ErrNotFound,
		fee.ErrAlreadyPaid, notice.ErrNotFound,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func (cli *commandLine) close() {
	cli.closeOnce.Do(func() {
		if err := cli.Store.Close(); err != nil {
			cli.Logger.Error("cli: closing store", err)
		}
	})
}
