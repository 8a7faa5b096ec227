// imgtool inspects and edits block-addressed IMG archives from the
// command line. It handles both single-file archives (VER2 magic) and
// two-file archives (a .dir directory stream next to a .img data
// stream); see the img package for the container semantics.
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/sagmar/img"
)

const usage = `usage: imgtool [-v] <command> [args]

commands:
  create  <archive>                 create a new empty archive (--pair for a .dir/.img pair)
  ls      <archive>                 list entries
  cat     <archive> <name>          write one entry to stdout
  add     <archive> <file>...       add files (entry name = base name)
  extract <archive> <dir> [name...] extract entries (all when no names given)
  rm      <archive> <name>...       remove entries
  rename  <archive> <old> <new>     rename an entry
  pack    <archive>                 defragment and report the new size
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "imgtool: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	flags := pflag.NewFlagSet("imgtool", pflag.ContinueOnError)
	flags.SetInterspersed(false)
	verbose := flags.BoolP("verbose", "v", false, "log internal operations to stderr")
	flags.Usage = func() { fmt.Fprint(os.Stderr, usage) }

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if flags.NArg() == 0 {
		flags.Usage()
		return errors.New("missing command")
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	command, rest := flags.Arg(0), flags.Args()[1:]
	switch command {
	case "create":
		return cmdCreate(logger, rest)
	case "ls":
		return cmdList(rest)
	case "cat":
		return cmdCat(rest)
	case "add":
		return cmdAdd(logger, rest)
	case "extract":
		return cmdExtract(logger, rest)
	case "rm":
		return cmdRemove(logger, rest)
	case "rename":
		return cmdRename(logger, rest)
	case "pack":
		return cmdPack(logger, rest)
	default:
		flags.Usage()
		return fmt.Errorf("unknown command %q", command)
	}
}

// resolve maps a user-supplied archive path to its on-disk layout. A
// bare path gains .img; a .dir path (or a .img with a .dir companion)
// names a two-file pair.
func resolve(path string) (dirPath, imgPath string, pair bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".dir":
		base := path[:len(path)-len(".dir")]
		return path, base + ".img", true
	case ".img":
		base := path[:len(path)-len(".img")]
		if _, err := os.Stat(base + ".dir"); err == nil {
			return base + ".dir", path, true
		}
		return "", path, false
	default:
		return resolve(path + ".img")
	}
}

func openArchive(path string, mode img.Mode, logger *slog.Logger) (*img.Archive, error) {
	flag := os.O_RDONLY
	if mode == img.ReadWrite {
		flag = os.O_RDWR
	}
	dirPath, imgPath, pair := resolve(path)

	data, err := os.OpenFile(imgPath, flag, 0)
	if err != nil {
		return nil, err
	}
	if !pair {
		a, err := img.Open(data, mode, img.WithLogger(logger))
		if err != nil {
			data.Close()
			return nil, err
		}
		return a, nil
	}

	dir, err := os.OpenFile(dirPath, flag, 0)
	if err != nil {
		data.Close()
		return nil, err
	}
	a, err := img.OpenPair(dir, data, mode, img.WithLogger(logger))
	if err != nil {
		dir.Close()
		data.Close()
		return nil, err
	}
	return a, nil
}

func cmdCreate(logger *slog.Logger, args []string) error {
	flags := pflag.NewFlagSet("create", pflag.ContinueOnError)
	asPair := flags.Bool("pair", false, "create a two-file .dir/.img pair instead of a single file")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() != 1 {
		return errors.New("create: expected exactly one archive path")
	}

	dirPath, imgPath, _ := resolve(flags.Arg(0))
	data, err := os.OpenFile(imgPath, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}

	var a *img.Archive
	if *asPair {
		if dirPath == "" {
			dirPath = imgPath[:len(imgPath)-len(".img")] + ".dir"
		}
		dir, err := os.OpenFile(dirPath, os.O_RDWR|os.O_CREATE, 0o644)
		if err != nil {
			data.Close()
			return err
		}
		a, err = img.CreatePair(dir, data, img.WithLogger(logger))
		if err != nil {
			dir.Close()
			data.Close()
			return err
		}
	} else {
		a, err = img.Create(data, img.WithLogger(logger))
		if err != nil {
			data.Close()
			return err
		}
	}
	return a.Close()
}

func cmdList(args []string) error {
	if len(args) != 1 {
		return errors.New("ls: expected exactly one archive path")
	}
	a, err := openArchive(args[0], img.ReadOnly, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "OFFSET\tBLOCKS\tBYTES\tNAME\t")
	for e := range a.Entries() {
		fmt.Fprintf(w, "%d\t%d\t%d\t%s\t\n", e.Offset, e.Size, e.ByteSize(), e.Name)
	}
	fmt.Fprintf(w, "\t\t\t%d entries, %d blocks total\t\n", a.Len(), a.Size())
	return w.Flush()
}

func cmdCat(args []string) error {
	if len(args) != 2 {
		return errors.New("cat: expected an archive path and an entry name")
	}
	a, err := openArchive(args[0], img.ReadOnly, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	r, err := a.Open(args[1])
	if err != nil {
		return err
	}
	_, err = io.Copy(os.Stdout, r)
	return err
}

func cmdAdd(logger *slog.Logger, args []string) error {
	if len(args) < 2 {
		return errors.New("add: expected an archive path and at least one file")
	}
	a, err := openArchive(args[0], img.ReadWrite, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	for _, path := range args[1:] {
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		entry, err := a.Add(filepath.Base(path), content)
		if err != nil {
			return fmt.Errorf("add %s: %w", path, err)
		}
		logger.Info("added", "name", entry.Name, "offset", entry.Offset, "blocks", entry.Size)
	}
	return a.Sync()
}

// cmdExtract exports entries to a directory. Workers run in parallel,
// each on its own independently opened archive: the img package shares
// one store cursor per archive, so parallel readers need separate
// stores.
func cmdExtract(logger *slog.Logger, args []string) error {
	flags := pflag.NewFlagSet("extract", pflag.ContinueOnError)
	workers := flags.IntP("jobs", "j", runtime.NumCPU(), "parallel extraction workers")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() < 2 {
		return errors.New("extract: expected an archive path and an output directory")
	}
	archivePath, outDir := flags.Arg(0), flags.Arg(1)

	names := flags.Args()[2:]
	if len(names) == 0 {
		a, err := openArchive(archivePath, img.ReadOnly, nil)
		if err != nil {
			return err
		}
		for e := range a.Entries() {
			names = append(names, e.Name)
		}
		if err := a.Close(); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}

	var g errgroup.Group
	g.SetLimit(*workers)
	for _, name := range names {
		g.Go(func() error {
			a, err := openArchive(archivePath, img.ReadOnly, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			content, err := a.ReadFile(name)
			if err != nil {
				return err
			}
			dest := filepath.Join(outDir, filepath.Base(name))
			if err := os.WriteFile(dest, content, 0o644); err != nil {
				return err
			}
			logger.Info("extracted", "name", name, "bytes", len(content))
			return nil
		})
	}
	return g.Wait()
}

func cmdRemove(logger *slog.Logger, args []string) error {
	if len(args) < 2 {
		return errors.New("rm: expected an archive path and at least one name")
	}
	a, err := openArchive(args[0], img.ReadWrite, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	for _, name := range args[1:] {
		removed, err := a.Remove(name)
		if err != nil {
			return err
		}
		if !removed {
			logger.Warn("no such entry", "name", name)
			continue
		}
		logger.Info("removed", "name", name)
	}
	return a.Sync()
}

func cmdRename(logger *slog.Logger, args []string) error {
	if len(args) != 3 {
		return errors.New("rename: expected an archive path, the old name, and the new name")
	}
	a, err := openArchive(args[0], img.ReadWrite, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.Rename(args[1], args[2]); err != nil {
		return err
	}
	return a.Sync()
}

func cmdPack(logger *slog.Logger, args []string) error {
	if len(args) != 1 {
		return errors.New("pack: expected exactly one archive path")
	}
	a, err := openArchive(args[0], img.ReadWrite, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	size, err := a.Pack()
	if err != nil {
		return err
	}
	if err := a.Sync(); err != nil {
		return err
	}
	fmt.Printf("packed to %d blocks (%d bytes)\n", size, int64(size)*img.BlockSize)
	return nil
}
