package manager

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"craftd/pkg/config"
	"craftd/pkg/logger"
	"craftd/pkg/utils"
	"craftd/pkg/utils/constants"

	"github.com/gnuos/daemon"
	"go.uber.org/zap"
)

// Daemon owns the long-lived pieces: the registry, the snapshot store, the
// broadcaster and the ctl listener. One Daemon runs per host.
type Daemon struct {
	registry    *Registry
	store       *StateStore
	broadcaster *Broadcaster
	logger      *zap.SugaredLogger

	lnMu sync.Mutex
	ln   net.Listener
}

func (d *Daemon) setListener(ln net.Listener) {
	d.lnMu.Lock()
	d.ln = ln
	d.lnMu.Unlock()
}

func NewDaemon() *Daemon {
	cfg := config.GetConfig()

	return &Daemon{
		registry:    NewRegistry(cfg.BasePath),
		broadcaster: NewBroadcaster(),
		logger:      logger.Logging("daemon"),
	}
}

// Run is the daemon entry point. With daemonize enabled and no foreground
// flag the process forks itself into the background first; the parent
// returns immediately and the child carries on into the main loop.
func Run() error {
	cfg := config.GetConfig()

	if cfg.Daemonize && !config.ForegroundFlag {
		ctx := &daemon.Context{
			PidFileName: cfg.PidFile,
			PidFilePerm: 0644,
			WorkDir:     constants.CraftdHome,
			Umask:       027,
			Args:        os.Args,
		}

		child, err := ctx.Reborn()
		if err != nil {
			return err
		}
		if child != nil {
			return nil
		}
		defer func() {
			_ = ctx.Release()
		}()
	} else {
		if err := utils.WriteDaemonPid(os.Getpid()); err != nil {
			return err
		}
	}

	return NewDaemon().mainLoop()
}

func (d *Daemon) mainLoop() error {
	cfg := config.GetConfig()

	signal.Notify(utils.StopChan, syscall.SIGINT, syscall.SIGTERM)

	cfgPath := filepath.Join(constants.CraftdHome, fmt.Sprintf("%s.yml", constants.DefaultDaemonName))
	if err := config.WriteDefault(cfgPath); err != nil {
		d.logger.Warnf("Writing default config failed: %v", err)
	}

	if err := d.registry.LoadExisting(); err != nil {
		return err
	}

	store, err := OpenStateStore(cfg.StateDir)
	if err != nil {
		return err
	}
	d.store = store

	if err := d.store.Restore(d.registry); err != nil {
		d.logger.Warnf("State restore failed: %v", err)
	}

	go d.StartServer(cfg.Socket)

	d.logger.Infof("Daemon started with PID %d", utils.SupervisorPid)

	select {
	case sig := <-utils.StopChan:
		d.logger.Infof("Received signal %s, shutting down", sig)
	case <-utils.FinishChan:
		d.logger.Info("Received shutdown request, shutting down")
	}

	d.Shutdown()
	return nil
}

// Shutdown force-stops every active instance, snapshots their state and
// removes the runtime files.
func (d *Daemon) Shutdown() {
	d.lnMu.Lock()
	if d.ln != nil {
		_ = d.ln.Close()
	}
	d.lnMu.Unlock()

	d.broadcaster.Shutdown()

	for _, inst := range d.registry.All() {
		if inst.Status().Active() {
			if err := inst.Stop(true); err != nil {
				d.logger.Warnf("Stopping %s during shutdown: %v", inst.ID, err)
			}
		}
	}

	if d.store != nil {
		if err := d.store.Save(d.registry); err != nil {
			d.logger.Warnf("State snapshot failed: %v", err)
		}
		_ = d.store.Close()
	}

	cfg := config.GetConfig()
	_ = os.Remove(cfg.Socket)
	_ = os.Remove(cfg.PidFile)

	d.logger.Info("Daemon stopped")
	logger.Reset()
}
