// Command codemode serves and exercises the codemode tool pipeline.
//
// The serve subcommand runs the MCP server on stdio for agent use; the
// remaining subcommands (discover, signatures, run, doc) drive the same
// operations directly from the terminal for development and debugging.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jonwraymond/codemode"
	"github.com/jonwraymond/codemode/config"
	"github.com/jonwraymond/codemode/server"
)

var (
	cfgPath    string
	augmentDir string
	verbose    bool
)

func main() {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetLevel(logrus.WarnLevel)

	root := &cobra.Command{
		Use:           "codemode",
		Short:         "Script-driven access to MCP tool services",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			if verbose {
				log.SetLevel(logrus.DebugLevel)
			}
		},
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "codemode.yaml", "service configuration file")
	root.PersistentFlags().StringVar(&augmentDir, "augments", "", "augmentation directory (overrides config)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		serveCmd(log),
		discoverCmd(log),
		signaturesCmd(log),
		runCmd(log),
		docCmd(log),
	)

	if err := root.Execute(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

// logrusLogger adapts logrus to the Logf interface the library accepts.
type logrusLogger struct {
	log *logrus.Logger
}

func (l logrusLogger) Logf(format string, args ...any) {
	l.log.Debugf(format, args...)
}

func buildClient(log *logrus.Logger) (*codemode.Client, error) {
	file, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	for _, v := range file.MissingVars {
		log.Warnf("config: environment variable %s is not set", v)
	}
	dir := file.AugmentDir
	if augmentDir != "" {
		dir = augmentDir
	}
	return codemode.New(codemode.Options{
		Services:   file.Services,
		AugmentDir: dir,
		Logger:     logrusLogger{log},
	})
}

func serveCmd(log *logrus.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the MCP tools on stdio",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			client, err := buildClient(log)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			log.Debug("serving on stdio")
			srv := server.New(client, server.WithLogger(logrusLogger{log}))
			return srv.Run(ctx, &mcp.StdioTransport{})
		},
	}
}

func discoverCmd(log *logrus.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "discover",
		Short: "List the tools of every configured service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := buildClient(log)
			if err != nil {
				return err
			}
			results, err := client.Discover(cmd.Context())
			if err != nil {
				return err
			}
			for _, d := range results {
				if d.Err != "" {
					fmt.Printf("%s\tUNAVAILABLE\t%s\n", d.ServiceID, d.Err)
					continue
				}
				for _, t := range d.Tools {
					fmt.Printf("%s\t%s\t%s\n", d.ServiceID, t.Key(), t.Description)
				}
			}
			return nil
		},
	}
}

func signaturesCmd(log *logrus.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "signatures [key...]",
		Short: "Print TypeScript signatures for tools",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := buildClient(log)
			if err != nil {
				return err
			}
			res, err := client.Signatures(cmd.Context(), args)
			if err != nil {
				return err
			}
			for _, w := range res.Warnings {
				log.Warn(w)
			}
			for _, key := range res.Unresolved {
				log.Warnf("unresolved tool: %s", key)
			}
			fmt.Print(res.Text)
			return nil
		},
	}
}

func runCmd(log *logrus.Logger) *cobra.Command {
	var (
		file    string
		tools   []string
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "run [script]",
		Short: "Execute a TypeScript script against the configured services",
		Long: "Execute a TypeScript script against the configured services.\n" +
			"The script comes from the argument, from --file, or from stdin.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := readScript(file, args)
			if err != nil {
				return err
			}
			client, err := buildClient(log)
			if err != nil {
				return err
			}
			res, err := client.Execute(cmd.Context(), codemode.ExecuteParams{
				Script:  source,
				Tools:   tools,
				Timeout: timeout,
			})
			if err != nil {
				return err
			}
			out, err := json.MarshalIndent(res, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			if !res.Success {
				os.Exit(1)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "read the script from a file")
	cmd.Flags().StringArrayVar(&tools, "tool", nil, "restrict the script to a tool key (repeatable)")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "execution budget (default 30s)")
	return cmd
}

func docCmd(log *logrus.Logger) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "doc <key>",
		Short: "Record a documentation fragment for a tool",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			body, err := readScript(file, nil)
			if err != nil {
				return err
			}
			client, err := buildClient(log)
			if err != nil {
				return err
			}
			if err := client.RecordDoc(args[0], body); err != nil {
				return err
			}
			fmt.Printf("recorded %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "read the markdown body from a file")
	return cmd
}

// readScript resolves input text from an argument, a file, or stdin, in
// that order of preference.
func readScript(file string, args []string) (string, error) {
	if len(args) > 0 && args[0] != "" {
		return args[0], nil
	}
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
