package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/jherland/hifictl/pkg/avrdriver"
	"github.com/jherland/hifictl/pkg/avrstate"
	"github.com/jherland/hifictl/pkg/config"
	"github.com/jherland/hifictl/pkg/hdmidriver"
	"github.com/jherland/hifictl/pkg/logger"
	"github.com/jherland/hifictl/pkg/metrics"
	"github.com/jherland/hifictl/pkg/presenter"
	"github.com/jherland/hifictl/pkg/router"
	"github.com/jherland/hifictl/pkg/serialport"
	"github.com/jherland/hifictl/pkg/web"
)

var (
	version   = "dev"
	gitCommit = "unknown"
)

func main() {
	configFile := flag.String("config", "", "Path to configuration file (default: search ./config.yaml, ./configs, /etc/hifictl)")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("hifictl %s (%s)\n", version, gitCommit)
		os.Exit(0)
	}

	log := logger.New(logger.Config{Level: "info"})
	log.Info("starting hifictl", logger.String("version", version), logger.String("commit", gitCommit))

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Error("failed to load configuration", logger.Error(err))
		os.Exit(1)
	}

	log = logger.New(logger.Config{Level: cfg.Logging.Level})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	var wg sync.WaitGroup
	metricsCollector := metrics.NewCollector()
	cmdRouter := router.New()
	pres := presenter.New(cmdRouter, log.WithComponent("presenter"))

	avrDriver := avrdriver.NewWithTimeouts(
		avrOpenFunc(cfg.AVR),
		log,
		metricsCollector,
		func(s avrstate.State) { pres.PublishAVR(s.Snapshot()) },
		time.Duration(cfg.AVR.WatchdogSeconds)*time.Second,
		time.Duration(cfg.AVR.OffAfterSeconds*float64(time.Second)),
	)
	if err := cmdRouter.Register("avr", avrCommandHandler(avrDriver), false); err != nil {
		log.Error("failed to register avr command handler", logger.Error(err))
		os.Exit(1)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := avrDriver.Run(ctx); err != nil && err != context.Canceled {
			log.Error("avr driver stopped", logger.Error(err))
		}
	}()

	hdmiPort, err := serialport.Open(serialport.Config{
		Path:     cfg.HDMI.DevicePath,
		BaudRate: cfg.HDMI.BaudRate,
	})
	if err != nil {
		log.Error("failed to open hdmi serial port, hdmi control disabled", logger.Error(err))
	} else {
		hdmiDriver := hdmidriver.New(hdmiPort, log, metricsCollector)
		if err := cmdRouter.Register("hdmi", hdmiCommandHandler(hdmiDriver), false); err != nil {
			log.Error("failed to register hdmi command handler", logger.Error(err))
			os.Exit(1)
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := hdmiDriver.Run(ctx); err != nil && err != context.Canceled {
				log.Error("hdmi driver stopped", logger.Error(err))
			}
		}()

		wg.Add(1)
		go func() {
			defer wg.Done()
			publishHDMISnapshots(ctx, hdmiDriver, pres)
		}()
	}

	if cfg.Web.Enabled {
		addr := fmt.Sprintf("%s:%d", cfg.Web.Host, cfg.Web.Port)
		webServer := web.New(addr, pres, metricsCollector, log)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := webServer.Run(ctx); err != nil && err != context.Canceled {
				log.Error("web server stopped", logger.Error(err))
			}
		}()
		log.Info("web server started", logger.String("addr", addr))
	}

	log.Info("hifictl running",
		logger.String("avr_device", cfg.AVR.DevicePath),
		logger.String("hdmi_device", cfg.HDMI.DevicePath))

	sig := <-sigChan
	log.Info("received shutdown signal", logger.String("signal", sig.String()))
	cancel()
	wg.Wait()
	log.Info("hifictl stopped")
}

func avrOpenFunc(cfg config.AVRConfig) avrdriver.OpenFunc {
	return func() (serialport.Port, error) {
		return serialport.Open(serialport.Config{
			Path:     cfg.DevicePath,
			BaudRate: cfg.BaudRate,
		})
	}
}

// avrCommandHandler translates the AVR command surface's textual
// tokens (spec.md §4.7's "avr on|off|mute|vol+|vol-|..." namespace)
// into the symbolic names avrproto.Commands recognizes, enqueuing them
// on the driver's command queue.
func avrCommandHandler(d *avrdriver.Driver) router.Handler {
	return func(remainder string) error {
		switch remainder {
		case "on":
			d.Enqueue("POWER ON")
		case "off":
			d.Enqueue("POWER OFF")
		case "mute":
			d.Enqueue("MUTE")
		case "vol+":
			d.Enqueue("VOL UP")
		case "vol-":
			d.Enqueue("VOL DOWN")
		case "vol?":
			// No dedicated query code exists; VOL DOWN forces a fresh
			// status frame carrying the current volume, matching the
			// source implementation's resolution of the same gap.
			d.Enqueue("VOL DOWN")
		case "dig+":
			d.Enqueue("DIGITAL UP")
		case "dig-":
			d.Enqueue("DIGITAL DOWN")
		case "dig?":
			d.Enqueue("DIGITAL")
		case "source vid1":
			d.Enqueue("VID1")
		case "source vid2":
			d.Enqueue("VID2")
		case "surround 6ch":
			d.Enqueue("6CH/8CH")
		case "surround dolby":
			d.Enqueue("DOLBY")
		case "surround dts":
			d.Enqueue("DTS")
		case "surround stereo":
			d.Enqueue("STEREO")
		default:
			return fmt.Errorf("avr: unrecognized command %q", remainder)
		}
		return nil
	}
}

// hdmiCommandHandler passes the remainder straight through: the
// router's "hdmi" namespace tokens are exactly hdmiproto.Codes' keys.
func hdmiCommandHandler(d *hdmidriver.Driver) router.Handler {
	return func(remainder string) error {
		return d.Send(remainder)
	}
}

// publishHDMISnapshots polls the HDMI driver's snapshot and republishes
// it to the presenter on change; unlike the AVR driver, the HDMI
// session has no reducer callback to push updates from, since its
// state is just the session state (init/ready) and the last echoed
// input.
func publishHDMISnapshots(ctx context.Context, d *hdmidriver.Driver, pres *presenter.Presenter) {
	const pollInterval = 100 * time.Millisecond
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	var last hdmidriver.Snapshot
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cur := d.Snapshot()
			if cur != last {
				pres.PublishHDMI(cur)
				last = cur
			}
		}
	}
}
