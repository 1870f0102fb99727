// Package cli implements the pdftool command line on top of the operation engine.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"

	"pdftool/api"
	"pdftool/config"
	"pdftool/operation"
	"pdftool/pdf"
)

// Name is the program name used in usage hints.
const Name = "pdftool"

// Version information (set during build)
var (
	Version = "dev"
	Commit  = "none"
)

// Process exit statuses.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitSyntax  = 2
)

const usageText = `pdftool [OPTION] -i INPUT_FILE... -o OUTPUT_FILE
   pdftool serve [--port PORT]

   Encrypted inputs take their password after a colon: -i secret.pdf:password

Examples:
   pdftool -d -i locked.pdf:password -o plain.pdf
   pdftool -p password --set-key-length 128 -i in.pdf -o locked.pdf
   pdftool -l PRINT MODIFY -i in.pdf -o limited.pdf
   pdftool -m -i a.pdf b.pdf c.pdf -o merged.pdf
   pdftool -R 1,3 5 -i in.pdf -o removed.pdf
   pdftool -r 90 -i in.pdf -o rotated.pdf
   pdftool -s 1-3 5 8- -i in.pdf -o part.pdf
   pdftool -t png --set-dpi 150 -c -i in.pdf -o page
   pdftool -T -i a.png b.jpg -o images.pdf
   pdftool -e jpg -i in.pdf -o image`

// syntaxError marks a malformed command line as opposed to a failed operation.
type syntaxError struct {
	err error
}

func (e *syntaxError) Error() string { return e.err.Error() }

func (e *syntaxError) Unwrap() error { return e.err }

// multiValue names the options that consume every following token up to the next option.
var multiValue = map[string]bool{
	"-i":                 true,
	"--input-file":       true,
	"-l":                 true,
	"--limit-permission": true,
	"-R":                 true,
	"--remove-pages":     true,
	"-s":                 true,
	"--split":            true,
}

// isValue reports whether arg continues a multi-value option. Options never start with a digit,
// so "-3" is a range.
func isValue(arg string) bool {
	if !strings.HasPrefix(arg, "-") {
		return true
	}
	return len(arg) > 1 && arg[1] >= '0' && arg[1] <= '9'
}

// NormalizeArgs rewrites "-i a.pdf b.pdf" into "-i a.pdf -i b.pdf" so the parser sees
// one value per occurrence. args excludes the program name.
func NormalizeArgs(args []string) []string {
	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		out = append(out, arg)
		if arg == "--" {
			return append(out, args[i+1:]...)
		}

		name, _, inline := strings.Cut(arg, "=")
		if !multiValue[name] {
			continue
		}
		if !inline {
			if i+1 == len(args) {
				continue
			}
			i++
			out = append(out, args[i])
		}
		for i+1 < len(args) && isValue(args[i+1]) {
			i++
			out = append(out, name, args[i])
		}
	}
	return out
}

type app struct {
	stdout io.Writer
	stderr io.Writer
	log    *logrus.Logger
	cfg    *config.Config
}

func newApp(stdout, stderr io.Writer) *app {
	logger := logrus.New()
	logger.SetOutput(stderr)
	logger.SetLevel(config.ParseLogLevel(os.Getenv("LOG_LEVEL")))
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	return &app{stdout: stdout, stderr: stderr, log: logger, cfg: config.Default()}
}

// Run executes the command line in args (program name first) and returns the exit status.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	a := newApp(stdout, stderr)
	if len(args) > 1 {
		args = append([]string{args[0]}, NormalizeArgs(args[1:])...)
	}

	err := a.command().Run(ctx, args)
	if err == nil {
		return ExitOK
	}

	var syntax *syntaxError
	if errors.As(err, &syntax) {
		a.log.WithError(err).Debug("Invalid command line")
		fmt.Fprintln(stderr, "Invalid option")
		fmt.Fprintf(stderr, "Try '%s -h'\n", Name)
		return ExitSyntax
	}

	color.New(color.FgRed).Fprintln(stderr, err.Error())
	return ExitFailure
}

func (a *app) command() *cli.Command {
	return &cli.Command{
		Name:                      Name,
		Usage:                     "batch operations on PDF documents",
		UsageText:                 usageText,
		Version:                   fmt.Sprintf("%s (commit: %s)", Version, Commit),
		Writer:                    a.stdout,
		ErrWriter:                 a.stderr,
		HideHelpCommand:           true,
		DisableSliceFlagSeparator: true,
		Flags:                     a.flags(),
		Before:                    a.before,
		Action:                    a.run,
		OnUsageError: func(_ context.Context, _ *cli.Command, err error, _ bool) error {
			return &syntaxError{err: err}
		},
		ExitErrHandler: func(context.Context, *cli.Command, error) {},
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "serve the operations over HTTP",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "port",
						Usage: "port to listen on (default from PORT or the config file)",
						Local: true,
					},
				},
				Action: a.serve,
			},
		},
	}
}

func (a *app) flags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:    string(operation.OptCompressImages),
			Aliases: []string{"c"},
			Usage:   "pack the generated images into <output>.zip (with -e or -t)",
		},
		&cli.BoolFlag{
			Name:    string(operation.OptDecrypt),
			Aliases: []string{"d"},
			Usage:   "remove all security from the input",
		},
		&cli.StringFlag{
			Name:    string(operation.OptExtractImages),
			Aliases: []string{"e"},
			Usage:   "extract embedded images as `FORMAT` (png, jpg, gif)",
		},
		&cli.BoolFlag{
			Name:    string(operation.OptMerge),
			Aliases: []string{"m"},
			Usage:   "merge the inputs in order",
		},
		&cli.StringFlag{
			Name:    string(operation.OptSetPassword),
			Aliases: []string{"p"},
			Usage:   "encrypt with `PASSWORD`",
		},
		&cli.IntFlag{
			Name:  string(operation.OptKeyLength),
			Usage: "encryption key length `N` (40, 128, 256; default 256, with -p)",
		},
		&cli.StringSliceFlag{
			Name:    string(operation.OptLimitPermission),
			Aliases: []string{"l"},
			Usage:   "deny `PERM...` (PRINT, MODIFY, EXTRACT)",
		},
		&cli.StringSliceFlag{
			Name:    string(operation.OptRemovePages),
			Aliases: []string{"R"},
			Usage:   "remove the pages in `RANGE...` (comma or space separated)",
		},
		&cli.IntFlag{
			Name:    string(operation.OptRotate),
			Aliases: []string{"r"},
			Usage:   "rotate every page clockwise by `DEGREE` (multiple of 90)",
		},
		&cli.StringSliceFlag{
			Name:    string(operation.OptSplit),
			Aliases: []string{"s"},
			Usage:   "split into one file per item of `RANGE...` (N, N-M, N-, -M)",
		},
		&cli.BoolFlag{
			Name:    string(operation.OptConvertImagesToPdf),
			Aliases: []string{"T"},
			Usage:   "convert the input images into one PDF",
		},
		&cli.StringFlag{
			Name:    string(operation.OptConvertToImages),
			Aliases: []string{"t"},
			Usage:   "render every page as `FORMAT` (png, jpg, gif)",
		},
		&cli.IntFlag{
			Name:  string(operation.OptDPI),
			Usage: "render resolution `N` (default 300, with -t)",
		},
		&cli.StringSliceFlag{
			Name:    "input-file",
			Aliases: []string{"i"},
			Usage:   "input `FILE...`, optionally FILE:PASSWORD",
		},
		&cli.StringFlag{
			Name:    "output-file",
			Aliases: []string{"o"},
			Usage:   "output `FILE`; multi-file outputs are numbered from it",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "log `LEVEL` (debug, info, warn, error)",
		},
		&cli.StringFlag{
			Name:  "config",
			Usage: "YAML configuration `FILE` (default $PDFTOOL_CONFIG)",
		},
	}
}

func (a *app) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return ctx, err
	}
	if cmd.IsSet("log-level") {
		cfg.LogLevel = cmd.String("log-level")
	}
	a.cfg = cfg
	a.log.SetLevel(config.ParseLogLevel(cfg.LogLevel))
	a.log.WithFields(logrus.Fields{
		"renderer": cfg.Renderer,
		"level":    cfg.LogLevel,
	}).Debug("Configuration loaded")
	return ctx, nil
}

func (a *app) run(ctx context.Context, cmd *cli.Command) error {
	if cmd.NArg() > 0 {
		return &syntaxError{err: fmt.Errorf("unexpected argument %q", cmd.Args().First())}
	}
	if !cmd.IsSet("input-file") || !cmd.IsSet("output-file") {
		return &syntaxError{err: errors.New("options -i and -o are required")}
	}

	req, err := operation.Validate(flagsFrom(cmd))
	if err != nil {
		return err
	}

	rasterizer, err := a.rasterizer("")
	if err != nil {
		return err
	}
	d := operation.NewDispatcher(rasterizer, "", a.log)

	res, err := d.Run(ctx, req, cmd.StringSlice("input-file"), cmd.String("output-file"))
	if err != nil {
		return err
	}
	for _, out := range res.Outputs {
		a.log.WithField("file", out).Info("Wrote output")
	}
	fmt.Fprintln(a.stdout, "Finished!")
	return nil
}

func (a *app) serve(ctx context.Context, cmd *cli.Command) error {
	if cmd.IsSet("port") {
		a.cfg.Port = cmd.String("port")
	}

	rasterizer, err := a.rasterizer(a.cfg.TempDir)
	if err != nil {
		return err
	}
	router := api.NewRouter(&api.Config{
		MaxFileSize: a.cfg.MaxFileSize,
		TempDir:     a.cfg.TempDir,
		Rasterizer:  rasterizer,
		Log:         a.log,
	})
	return api.Serve(ctx, ":"+a.cfg.Port, router, a.log)
}

func (a *app) rasterizer(tempDir string) (pdf.Rasterizer, error) {
	command, err := a.cfg.RendererCommand()
	if err != nil {
		return nil, err
	}
	return pdf.NewCommandRasterizer(command, a.cfg.RenderTimeout, tempDir, a.log), nil
}

// flagsFrom copies the parsed command line into the engine's flag state.
func flagsFrom(cmd *cli.Command) operation.Flags {
	var f operation.Flags
	for _, opt := range operation.PrimaryOptions {
		if cmd.IsSet(string(opt)) {
			f.Mark(opt)
		}
	}
	for _, opt := range []operation.Option{operation.OptKeyLength, operation.OptDPI, operation.OptCompressImages} {
		if cmd.IsSet(string(opt)) {
			f.Mark(opt)
		}
	}

	f.ExtractFormat = cmd.String(string(operation.OptExtractImages))
	f.Password = cmd.String(string(operation.OptSetPassword))
	f.KeyLength = cmd.Int(string(operation.OptKeyLength))
	f.Permissions = cmd.StringSlice(string(operation.OptLimitPermission))
	f.RemovePages = strings.Join(cmd.StringSlice(string(operation.OptRemovePages)), ",")
	f.Degree = cmd.Int(string(operation.OptRotate))
	f.Split = strings.Join(cmd.StringSlice(string(operation.OptSplit)), ",")
	f.ConvertFormat = cmd.String(string(operation.OptConvertToImages))
	f.DPI = cmd.Int(string(operation.OptDPI))
	f.CompressImages = cmd.Bool(string(operation.OptCompressImages))
	return f
}
