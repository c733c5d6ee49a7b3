package main

import (
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/aligator/fatinspect"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

type commands struct {
	stdout io.Writer
	outFs  afero.Fs
	log    *log.Logger
}

func (c *commands) info(ctx *cli.Context) error {
	format := ctx.String("format")
	if format != "text" && format != "yaml" {
		return fmt.Errorf("%w: unknown format %q", errUsage, format)
	}

	return c.withVolume(ctx, 1, func(v *fatinspect.Volume) error {
		report, err := v.Info()
		if err != nil {
			return err
		}

		if format == "yaml" {
			enc := yaml.NewEncoder(c.stdout)
			if err := enc.Encode(report); err != nil {
				return err
			}
			return enc.Close()
		}

		fmt.Fprintf(c.stdout, "Drive name: %s\n", report.DriveLabel)
		fmt.Fprintf(c.stdout, "OEM name: %s\n", report.OEMName)
		fmt.Fprintf(c.stdout, "free space: %d KB\n", report.FreeSpaceKB)
		fmt.Fprintf(c.stdout, "Total space: %d KB\n", report.TotalSpaceKB)
		fmt.Fprintf(c.stdout, "Total usable space: %d KB\n", report.UsableSpaceKB)
		fmt.Fprintf(c.stdout, "Cluster size in sectors: %d\n", report.SectorsPerCluster)
		fmt.Fprintf(c.stdout, "Cluster size is: %d bytes\n", report.BytesPerCluster)
		return nil
	})
}

func (c *commands) list(ctx *cli.Context) error {
	return c.withVolume(ctx, 1, func(v *fatinspect.Volume) error {
		fmt.Fprintln(c.stdout, "root")
		return v.Walk(func(entry fatinspect.TreeEntry) error {
			fmt.Fprintln(c.stdout, strings.Repeat("-", entry.Depth+1)+entry.Name)
			return nil
		})
	})
}

func (c *commands) get(ctx *cli.Context) error {
	return c.withVolume(ctx, 2, func(v *fatinspect.Volume) error {
		filePath := ctx.Args().Get(1)
		fmt.Fprintf(c.stdout, "Begin fetch of: %s\n", filePath)

		entry, err := v.Resolve(filePath)
		if errors.Is(err, fatinspect.ErrNotFound) {
			fmt.Fprintf(c.stdout, "Could not find file from the path: %s\n", filePath)
			return err
		}
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return fmt.Errorf("%s: %w", filePath, fatinspect.ErrIsDirectory)
		}

		outDir := ctx.String("output")
		if err := c.outFs.MkdirAll(outDir, 0755); err != nil {
			return err
		}

		target := filepath.Join(outDir, path.Base(filePath))
		if err := c.writeFile(v, entry, target); err != nil {
			return err
		}

		fmt.Fprintf(c.stdout, "Completed fetch of: %s\n", filePath)
		return nil
	})
}

// writeFile copies the content of entry into target. A partially written target is removed.
func (c *commands) writeFile(v *fatinspect.Volume, entry fatinspect.Entry, target string) (err error) {
	out, err := c.outFs.Create(target)
	if err != nil {
		return err
	}
	defer func() {
		closeErr := out.Close()
		if err == nil {
			err = closeErr
		}
		if err != nil {
			c.log.WithError(err).WithField("target", target).Debug("removing partial output")
			_ = c.outFs.Remove(target)
		}
	}()

	var written int64
	err = v.ReadChunks(entry, func(chunk []byte) error {
		n, err := out.Write(chunk)
		written += int64(n)
		return err
	})
	if err != nil {
		return err
	}

	c.log.WithFields(log.Fields{
		"target": target,
		"bytes":  written,
	}).Debug("file written")
	return nil
}
