// Command fatinspect reads FAT32 images and devices without modifying them.
//
//	fatinspect info IMAGE
//	fatinspect list IMAGE
//	fatinspect get [--output DIR] IMAGE PATH
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/aligator/fatinspect"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v2"
)

const (
	exitUsage     = 1
	exitSignature = 2
	exitNotFound  = 3
	exitMalformed = 4
)

var defaultLogFormatter = &log.TextFormatter{DisableTimestamp: true}

// infoFormatter prints info messages without any decoration.
type infoFormatter struct{}

func (f *infoFormatter) Format(entry *log.Entry) ([]byte, error) {
	if entry.Level == log.InfoLevel {
		return append([]byte(entry.Message), '\n'), nil
	}
	return defaultLogFormatter.Format(entry)
}

// errUsage is returned for missing or surplus arguments.
var errUsage = errors.New("invalid arguments")

// device is an opened image file or block device.
type device interface {
	io.ReaderAt
	io.Closer
}

func main() {
	logger := log.StandardLogger()
	logger.SetFormatter(new(infoFormatter))
	logger.SetLevel(log.InfoLevel)

	app := newApp(os.Stdout, afero.NewOsFs(), logger)
	if err := app.Run(os.Args); err != nil {
		logger.Errorf("%v", err)
		logger.Debugf("%+v", err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps an error to the exit code of the process.
func exitCode(err error) int {
	switch {
	case errors.Is(err, fatinspect.ErrInvalidSignature), errors.Is(err, fatinspect.ErrInvalidBootSector):
		return exitSignature
	case errors.Is(err, fatinspect.ErrNotFound):
		return exitNotFound
	case errors.Is(err, fatinspect.ErrMalformedEncoding):
		return exitMalformed
	default:
		return exitUsage
	}
}

// newApp builds the command line interface. Output goes to stdout,
// extracted files are written to outFs.
func newApp(stdout io.Writer, outFs afero.Fs, logger *log.Logger) *cli.App {
	c := &commands{stdout: stdout, outFs: outFs, log: logger}

	return &cli.App{
		Name:      "fatinspect",
		Usage:     "inspect FAT32 images and devices read-only",
		Writer:    stdout,
		ErrWriter: logger.Out,
		// Errors are mapped to exit codes in main.
		ExitErrHandler: func(*cli.Context, error) {},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "debug",
				Usage:   "log every read of the volume",
				EnvVars: []string{"FATINSPECT_DEBUG"},
			},
			&cli.BoolFlag{
				Name:    "skip-checks",
				Usage:   "open the volume even if the FAT signature is invalid",
				EnvVars: []string{"FATINSPECT_SKIP_CHECKS"},
			},
		},
		Before: func(ctx *cli.Context) error {
			if ctx.Bool("debug") {
				logger.SetFormatter(defaultLogFormatter)
				logger.SetLevel(log.DebugLevel)
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:      "info",
				Aliases:   []string{"i"},
				Usage:     "print the key information of the volume",
				ArgsUsage: "IMAGE",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "output format, text or yaml",
						Value:   "text",
						EnvVars: []string{"FATINSPECT_FORMAT"},
					},
				},
				Action: c.info,
			},
			{
				Name:      "list",
				Aliases:   []string{"l"},
				Usage:     "print the directory tree",
				ArgsUsage: "IMAGE",
				Action:    c.list,
			},
			{
				Name:      "get",
				Aliases:   []string{"g"},
				Usage:     "copy a file out of the volume",
				ArgsUsage: "IMAGE PATH",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "directory the file is written to",
						Value:   "Output",
						EnvVars: []string{"FATINSPECT_OUTPUT"},
					},
				},
				Action: c.get,
			},
		},
	}
}

// withVolume opens the image given as first argument, runs fn and closes the image again.
func (c *commands) withVolume(ctx *cli.Context, args int, fn func(v *fatinspect.Volume) error) error {
	if ctx.NArg() != args {
		_ = cli.ShowCommandHelp(ctx, ctx.Command.Name)
		return fmt.Errorf("%w: %s expects %d arguments, got %d", errUsage, ctx.Command.Name, args, ctx.NArg())
	}

	image := ctx.Args().First()
	dev, err := openDevice(image)
	if err != nil {
		return err
	}
	defer dev.Close()

	v, err := fatinspect.Open(dev, fatinspect.Options{
		SkipChecks: ctx.Bool("skip-checks"),
		Logger:     c.log.WithField("image", image),
	})
	if err != nil {
		if errors.Is(err, fatinspect.ErrInvalidSignature) {
			fmt.Fprintln(c.stdout, "Invalid FAT Signatures.")
		}
		return err
	}

	return fn(v)
}
