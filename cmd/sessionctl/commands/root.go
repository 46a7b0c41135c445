package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/common-nighthawk/go-figure"
	"github.com/spf13/cobra"

	"github.com/jrsteele09/go-auth-session/authapi"
	"github.com/jrsteele09/go-auth-session/internal/config"
	"github.com/jrsteele09/go-auth-session/internal/logging"
	"github.com/jrsteele09/go-auth-session/navigation"
	"github.com/jrsteele09/go-auth-session/session"
	"github.com/jrsteele09/go-auth-session/store"
	"github.com/jrsteele09/go-auth-session/store/filestore"
	"github.com/jrsteele09/go-auth-session/store/sqlitestore"
)

type rootFlags struct {
	apiURL      string
	storeDriver string
	storePath   string
	quiet       bool
}

// app is the wiring shared by every subcommand for one invocation.
type app struct {
	out     io.Writer
	manager *session.Manager
	router  *navigation.Router
	closers []func() error
}

// runE wraps fn so the store and manager are closed once it returns, even on failure.
func (a *app) runE(fn func(cmd *cobra.Command) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) (err error) {
		defer func() {
			if cerr := a.close(); err == nil {
				err = cerr
			}
		}()
		return fn(cmd)
	}
}

func (a *app) close() error {
	var firstErr error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	a.closers = nil
	return firstErr
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	flags := &rootFlags{}
	a := &app{}

	rootCmd := &cobra.Command{
		Use:          "sessionctl",
		Short:        "Sign in to the BagBot dashboard API and manage the stored session",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.open(cmd, flags)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.apiURL, "api-url", "", "Auth API base URL (default from NEXT_PUBLIC_API_URL or API_URL)")
	pf.StringVar(&flags.storeDriver, "store", "", "session store driver: sqlite or file (default from STORE_DRIVER)")
	pf.StringVar(&flags.storePath, "store-path", "", "session store location (default from STORE_PATH)")
	pf.BoolVarP(&flags.quiet, "quiet", "q", false, "do not print the banner")

	rootCmd.AddCommand(
		newLoginCommand(a),
		newRegisterCommand(a),
		newLogoutCommand(a),
		newWhoamiCommand(a),
		newForgotPasswordCommand(a),
		newResetPasswordCommand(a),
		newRefreshCommand(a),
	)

	return rootCmd
}

func (a *app) open(cmd *cobra.Command, flags *rootFlags) error {
	cfg := config.New()
	a.out = cmd.OutOrStdout()
	logging.Setup(cfg, os.Stderr)
	if !flags.quiet {
		displayAppname(cfg.GetAppName())
	}

	driver := flags.storeDriver
	if driver == "" {
		driver = cfg.GetStoreDriver()
	}
	path := flags.storePath
	if path == "" {
		path = cfg.GetStorePath()
	}
	st, err := openStore(driver, path)
	if err != nil {
		return err
	}
	if c, ok := st.(io.Closer); ok {
		a.closers = append(a.closers, c.Close)
	}

	client := authapi.NewFromConfig(cfg, authapi.WithBaseURL(flags.apiURL))

	a.manager = session.New(client, st)
	a.router = navigation.NewRouter(a.manager, navigation.NavigatorFunc(func(route string) error {
		_, err := fmt.Fprintf(a.out, "-> %s\n", route)
		return err
	}))
	a.closers = append(a.closers,
		func() error { a.manager.Close(); return nil },
		func() error { a.router.Close(); return nil },
	)
	return nil
}

func openStore(driver, path string) (store.Store, error) {
	switch strings.ToLower(driver) {
	case config.StoreDriverFile:
		return filestore.Open(path)
	case config.StoreDriverSQLite, "":
		return sqlitestore.Open(path)
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
