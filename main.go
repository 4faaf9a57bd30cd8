package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/chzchzchz/kctrl/config"
	"github.com/chzchzchz/kctrl/device"
	klog "github.com/chzchzchz/kctrl/log"
)

type options struct {
	configPath string
	logPath    string
	verbose    bool
	lockPath   string
	wakeLock   string
	nice       int
	cpu        int
	watch      bool
}

func listDevices(w io.Writer) {
	fmt.Fprintf(w, "devices (%s):\n", device.InputDir)
	for _, d := range device.Enumerate() {
		name := d.Name
		if name == "" {
			name = "<unknown>"
		}
		fmt.Fprintf(w, "%s : %s\n", d.Path, name)
	}
}

// missingConfig reports whether err means the config file could not be found,
// which usually means the path argument was wrong.
func missingConfig(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

func main() {
	var o options
	flag.StringVar(&o.logPath, "log", "", "append log output to `file` instead of stderr")
	flag.BoolVar(&o.verbose, "v", false, "log key transitions and script output")
	flag.StringVar(&o.lockPath, "lock", "", "refuse to start if `file` is locked by another instance")
	flag.StringVar(&o.wakeLock, "wakelock", "", "hold a kernel wake lock with this `name`")
	flag.IntVar(&o.nice, "nice", 0, "set the process nice value (0 leaves it alone)")
	flag.IntVar(&o.cpu, "cpu", -1, "pin the process to this CPU (-1 leaves it alone)")
	flag.BoolVar(&o.watch, "watch", true, "re-apply log level and thresholds when the config file changes")
	list := flag.Bool("list", false, "list input devices and exit")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: kctrl [flags] [config.txt]\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *list {
		listDevices(os.Stdout)
		return
	}
	o.configPath = config.DefaultPath
	if flag.NArg() > 0 {
		o.configPath = flag.Arg(0)
	}

	logger, closer, err := klog.Open(o.logPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, o, logger)
	stop()
	if err != nil {
		logger.Error().Err(err).Msg("kctrl exiting")
		closer.Close()
		if missingConfig(err) {
			flag.Usage()
		}
		os.Exit(1)
	}
	closer.Close()
}
