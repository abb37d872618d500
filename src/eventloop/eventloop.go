package eventloop

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"crop-to-ai/src/capture"
	"crop-to-ai/src/overlay"
	"crop-to-ai/src/singleinstance"
	"crop-to-ai/src/worker"
)

// ErrBusy is returned to callers while a capture is in flight.
var ErrBusy = errors.New("Busy, please retry") //nolint:staticcheck

const (
	defaultDeadline = 30 * time.Second
	notifyTitle     = "Crop to AI"
)

// Commands is the service the loop dispatches to.
type Commands interface {
	CaptureRegion(x, y, width, height int, scale float64) (string, error)
	ReloadShortcut() (string, error)
	OpenTarget() (string, error)
}

// Loop is the single-threaded coordinator for hotkey, tray and delegated requests.
type Loop struct {
	commands Commands
	selector overlay.Selector
	pool     *worker.Pool
	srv      singleinstance.Server
	busy     bool
	results  chan result

	captureCh chan struct{}
	openCh    chan struct{}
	reloadCh  chan struct{}

	defaultTooltip string
	setTooltip     func(string)
	notify         func(title, message string)
	onStarted      func(port int)
	deadline       time.Duration
}

type result struct {
	text   string
	err    error
	conn   singleinstance.Conn
	cancel context.CancelFunc
}

// Options tune a loop; zero values take defaults.
type Options struct {
	Server   singleinstance.Server
	Deadline time.Duration
	// Tooltip receives tray tooltip updates.
	Tooltip func(string)
	// Notify reports hotkey and tray failures, which have no caller to reply to.
	Notify func(title, message string)
	// Started runs once the loopback server is listening.
	Started func(port int)
}

func New(commands Commands, selector overlay.Selector, opts Options) *Loop {
	deadline := opts.Deadline
	if deadline <= 0 {
		deadline = defaultDeadline
	}
	srv := opts.Server
	if srv == nil {
		srv = singleinstance.NewServer()
	}
	setTooltip := opts.Tooltip
	if setTooltip == nil {
		setTooltip = func(string) {}
	}
	notify := opts.Notify
	if notify == nil {
		notify = func(string, string) {}
	}
	return &Loop{
		commands:       commands,
		selector:       selector,
		pool:           worker.New(1),
		srv:            srv,
		results:        make(chan result, 1),
		captureCh:      make(chan struct{}, 4),
		openCh:         make(chan struct{}, 4),
		reloadCh:       make(chan struct{}, 4),
		defaultTooltip: "Crop to AI",
		setTooltip:     setTooltip,
		notify:         notify,
		onStarted:      opts.Started,
		deadline:       deadline,
	}
}

// SetDefaultTooltip sets the tray tooltip shown while idle.
func (l *Loop) SetDefaultTooltip(tt string) {
	l.defaultTooltip = tt
}

// TriggerCapture, TriggerOpen and TriggerReload post into the loop without
// blocking; they are safe to call from hotkey and tray goroutines.
func (l *Loop) TriggerCapture() { post(l.captureCh) }

func (l *Loop) TriggerOpen() { post(l.openCh) }

func (l *Loop) TriggerReload() { post(l.reloadCh) }

func post(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

func (l *Loop) setBusy(b bool) {
	l.busy = b
	if b {
		l.setTooltip("Crop to AI: processing...")
	} else {
		l.setTooltip(l.defaultTooltip)
	}
}

// Run starts the loopback server and processes requests until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	if err := l.srv.Start(ctx); err != nil {
		return err
	}
	defer l.srv.Close()
	defer l.pool.Close()

	if p := l.srv.Port(); p > 0 {
		log.Info().Int("port", p).Msg("Resident listening on 127.0.0.1")
		if l.onStarted != nil {
			l.onStarted(p)
		}
	}
	l.setTooltip(l.defaultTooltip)

	// Accept in the background so results keep flowing while no client connects.
	reqCh := make(chan singleinstance.Conn, 4)
	go func() {
		defer close(reqCh)
		for {
			conn, err := l.srv.Next(ctx)
			if err != nil {
				return
			}
			select {
			case reqCh <- conn:
			case <-ctx.Done():
				_ = conn.Close()
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.captureCh:
			l.handleCaptureHotkey(ctx)
		case <-l.openCh:
			l.handleOpen(nil)
		case <-l.reloadCh:
			l.handleReload(nil)
		case conn, ok := <-reqCh:
			if !ok {
				return nil
			}
			l.handleConn(ctx, conn)
		case res := <-l.results:
			l.handleResult(res)
		}
	}
}

func (l *Loop) handleConn(ctx context.Context, conn singleinstance.Conn) {
	req := conn.Request()
	switch req.Command {
	case singleinstance.CommandCapture:
		l.startCapture(ctx, capture.Request{X: req.X, Y: req.Y, Width: req.Width, Height: req.Height, ScaleFactor: req.Scale}, conn)
	case singleinstance.CommandReload:
		l.handleReload(conn)
	case singleinstance.CommandOpen:
		l.handleOpen(conn)
	default:
		respond(conn, "", fmt.Errorf("unsupported command %q", req.Command))
	}
}

func (l *Loop) handleCaptureHotkey(ctx context.Context) {
	if l.busy {
		log.Info().Msg("handleCaptureHotkey: busy, skipping")
		l.notify(notifyTitle, ErrBusy.Error())
		return
	}
	if l.selector == nil {
		log.Warn().Msg("handleCaptureHotkey: no region selector configured")
		return
	}
	req, cancelled, err := l.selector.Select(ctx)
	if err != nil {
		log.Error().Err(err).Msg("handleCaptureHotkey: selection error")
		l.notify(notifyTitle, "Selection error: "+err.Error())
		return
	}
	if cancelled {
		log.Info().Msg("handleCaptureHotkey: selection cancelled")
		return
	}
	l.startCapture(ctx, req, nil)
}

// startCapture runs the capture on the pool so the loop keeps serving other
// requests. conn is nil for hotkey and tray captures.
func (l *Loop) startCapture(ctx context.Context, req capture.Request, conn singleinstance.Conn) {
	if l.busy {
		respond(conn, "", ErrBusy)
		return
	}

	jobCtx, cancel := context.WithTimeout(ctx, l.deadline)
	l.setBusy(true)
	submitted := l.pool.Submit(jobCtx, func(context.Context) (string, error) {
		return l.commands.CaptureRegion(req.X, req.Y, req.Width, req.Height, req.ScaleFactor)
	}, func(text string, err error) {
		l.results <- result{text: text, err: err, conn: conn, cancel: cancel}
	})
	if !submitted {
		cancel()
		l.setBusy(false)
		respond(conn, "", ErrBusy)
	}
}

func (l *Loop) handleResult(res result) {
	defer func() {
		l.setBusy(false)
		if res.cancel != nil {
			res.cancel()
		}
	}()
	if res.err != nil {
		log.Warn().Err(res.err).Msg("Capture failed")
		if res.conn == nil {
			l.notify(notifyTitle, res.err.Error())
		}
	} else {
		log.Info().Str("result", res.text).Msg("Capture finished")
	}
	respond(res.conn, res.text, res.err)
}

func (l *Loop) handleReload(conn singleinstance.Conn) {
	text, err := l.commands.ReloadShortcut()
	if err != nil {
		log.Error().Err(err).Msg("Reload shortcut failed")
		if conn == nil {
			l.notify(notifyTitle, err.Error())
		}
	} else {
		log.Info().Msg(text)
	}
	respond(conn, text, err)
}

func (l *Loop) handleOpen(conn singleinstance.Conn) {
	text, err := l.commands.OpenTarget()
	if err != nil {
		log.Warn().Err(err).Msg("Quick open failed")
		if conn == nil {
			l.notify(notifyTitle, err.Error())
		}
	}
	respond(conn, text, err)
}

func respond(conn singleinstance.Conn, text string, err error) {
	if conn == nil {
		return
	}
	defer conn.Close()
	if err != nil {
		if rerr := conn.RespondError(err.Error()); rerr != nil {
			log.Warn().Err(rerr).Msg("Failed to send error reply")
		}
		return
	}
	if rerr := conn.RespondSuccess(text); rerr != nil {
		log.Warn().Err(rerr).Msg("Failed to send reply")
	}
}

// Deadline returns the per-capture deadline.
func (l *Loop) Deadline() time.Duration { return l.deadline }
