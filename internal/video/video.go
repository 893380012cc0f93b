// Package video implements the emulator's only video/audio/input sink: a
// dedicated emulation goroutine drives the core at its own pace while an
// ebiten.Game on the render/input goroutine blits whatever frame most
// recently arrived and forwards key events back. errgroup ties the two
// goroutines' lifetimes together at this one host-level thread boundary;
// the core itself stays single-threaded and cooperative (bus.Step is never
// called from more than one goroutine at a time).
package video

import (
	"context"
	"image/color"
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"golang.org/x/sync/errgroup"

	"gones/internal/config"
	"gones/internal/input"
	"gones/internal/logging"
)

const (
	nesWidth  = 256
	nesHeight = 240
)

// EmulatorCore is the narrow view of the running machine the emulation loop
// needs: enough to drive one emulated frame per iteration and read results.
type EmulatorCore interface {
	RunUntilNMI()
	FrameBuffer() [256 * 240]uint32
	GetAudioSamples() []float32
	SetControllerButton(controller int, button input.Button, pressed bool)
	Reset()
}

// keyBinding is one named-key mapping: a button's configured key name
// resolved to an ebiten key code.
type keyBinding struct {
	key    ebiten.Key
	button input.Button
}

// keyNames maps the config file's key names to ebiten key codes. Only the
// keys usable in the default mapping and reasonable substitutes are listed;
// an unrecognized name is dropped with a warning rather than panicking.
var keyNames = map[string]ebiten.Key{
	"Up": ebiten.KeyArrowUp, "Down": ebiten.KeyArrowDown,
	"Left": ebiten.KeyArrowLeft, "Right": ebiten.KeyArrowRight,
	"Return": ebiten.KeyEnter, "Enter": ebiten.KeyEnter, "Space": ebiten.KeySpace,
	"Escape": ebiten.KeyEscape, "Tab": ebiten.KeyTab,
	"A": ebiten.KeyA, "B": ebiten.KeyB, "C": ebiten.KeyC, "D": ebiten.KeyD,
	"E": ebiten.KeyE, "F": ebiten.KeyF, "G": ebiten.KeyG, "H": ebiten.KeyH,
	"I": ebiten.KeyI, "J": ebiten.KeyJ, "K": ebiten.KeyK, "L": ebiten.KeyL,
	"M": ebiten.KeyM, "N": ebiten.KeyN, "O": ebiten.KeyO, "P": ebiten.KeyP,
	"Q": ebiten.KeyQ, "R": ebiten.KeyR, "S": ebiten.KeyS, "T": ebiten.KeyT,
	"U": ebiten.KeyU, "V": ebiten.KeyV, "W": ebiten.KeyW, "X": ebiten.KeyX,
	"Y": ebiten.KeyY, "Z": ebiten.KeyZ,
}

// buildBindings resolves a configured KeyMapping into the subset of its
// entries that name a recognized key, paired with the button they drive.
// Reset has no in-game button of its own; Run resolves it into its own key
// and wires it to a dedicated reset channel instead.
func buildBindings(km config.KeyMapping, log *logging.Logger) []keyBinding {
	named := []struct {
		name   string
		button input.Button
	}{
		{km.A, input.ButtonA}, {km.B, input.ButtonB},
		{km.Select, input.ButtonSelect}, {km.Start, input.ButtonStart},
		{km.Up, input.ButtonUp}, {km.Down, input.ButtonDown},
		{km.Left, input.ButtonLeft}, {km.Right, input.ButtonRight},
	}
	var bindings []keyBinding
	for _, n := range named {
		key, ok := keyNames[n.name]
		if !ok {
			log.Warnf("unrecognized key name %q, binding dropped", n.name)
			continue
		}
		bindings = append(bindings, keyBinding{key, n.button})
	}
	return bindings
}

// buttonEvent is one key transition handed from the render/input goroutine
// to the emulation goroutine.
type buttonEvent struct {
	button  input.Button
	pressed bool
}

// Game implements ebiten.Game. It owns no emulator state directly: Update
// only forwards key transitions into inputEvents, and Draw blits whatever
// frame last arrived on frameCh, so it never touches the core concurrently
// with the emulation goroutine.
type Game struct {
	frame *ebiten.Image

	frameCh     <-chan [nesWidth * nesHeight]uint32
	inputEvents chan<- buttonEvent
	resetEvents chan<- struct{}
	lastFrame   [nesWidth * nesHeight]uint32

	bindings []keyBinding
	quitKey  ebiten.Key
	resetKey ebiten.Key

	quitRequested bool
}

// Update drains pending key transitions and forwards them to the emulation
// goroutine; it never steps the core itself.
func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(g.quitKey) {
		g.quitRequested = true
	}
	if g.quitRequested {
		return ebiten.Termination
	}

	if inpututil.IsKeyJustPressed(g.resetKey) {
		select {
		case g.resetEvents <- struct{}{}:
		default:
		}
	}

	for _, b := range g.bindings {
		if inpututil.IsKeyJustPressed(b.key) {
			g.sendButton(b.button, true)
		} else if inpututil.IsKeyJustReleased(b.key) {
			g.sendButton(b.button, false)
		}
	}
	return nil
}

// sendButton forwards a transition without blocking the render goroutine if
// the emulation goroutine has fallen behind.
func (g *Game) sendButton(button input.Button, pressed bool) {
	select {
	case g.inputEvents <- buttonEvent{button, pressed}:
	default:
	}
}

// Draw blits the most recently completed frame, scaled and centered to the
// window, re-using the previous frame if a new one hasn't arrived yet.
func (g *Game) Draw(screen *ebiten.Image) {
	select {
	case f := <-g.frameCh:
		g.lastFrame = f
	default:
	}

	pix := make([]byte, nesWidth*nesHeight*4)
	for i, p := range g.lastFrame {
		pix[i*4+0] = byte(p >> 16)
		pix[i*4+1] = byte(p >> 8)
		pix[i*4+2] = byte(p)
		pix[i*4+3] = 0xFF
	}
	g.frame.WritePixels(pix)

	screen.Fill(color.Black)

	sw, sh := screen.Bounds().Dx(), screen.Bounds().Dy()
	scaleX := float64(sw) / float64(nesWidth)
	scaleY := float64(sh) / float64(nesHeight)
	scale := scaleX
	if scaleY < scale {
		scale = scaleY
	}
	offsetX := (float64(sw) - nesWidth*scale) / 2
	offsetY := (float64(sh) - nesHeight*scale) / 2

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(scale, scale)
	op.GeoM.Translate(offsetX, offsetY)
	screen.DrawImage(g.frame, op)
}

// Layout reports the logical screen size; ebiten scales to the window via
// the OS-level scale applied in Draw.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return outsideWidth, outsideHeight
}

// autosaveInterval is how often the emulation loop persists battery-backed
// save RAM while running, independent of the clean-shutdown save in main.
const autosaveInterval = 30 * time.Second

// Run wires a dedicated emulation goroutine to an ebiten render/input
// goroutine and blocks until the window closes or either goroutine fails.
// autosave, if non-nil, is called periodically from the emulation goroutine.
func Run(core EmulatorCore, cfg *config.Config, title string, autosave func() error) error {
	frameCh := make(chan [nesWidth * nesHeight]uint32, 1)
	inputEvents := make(chan buttonEvent, 16)
	resetEvents := make(chan struct{}, 1)
	log := logging.New("video")

	quitKey, ok := keyNames[cfg.Input.Player1Keys.Quit]
	if !ok {
		log.Warnf("unrecognized quit key %q, defaulting to Escape", cfg.Input.Player1Keys.Quit)
		quitKey = ebiten.KeyEscape
	}
	resetKey, ok := keyNames[cfg.Input.Player1Keys.Reset]
	if !ok {
		log.Warnf("unrecognized reset key %q, defaulting to R", cfg.Input.Player1Keys.Reset)
		resetKey = ebiten.KeyR
	}

	game := &Game{
		frame:       ebiten.NewImage(nesWidth, nesHeight),
		frameCh:     frameCh,
		inputEvents: inputEvents,
		resetEvents: resetEvents,
		bindings:    buildBindings(cfg.Input.Player1Keys, log),
		quitKey:     quitKey,
		resetKey:    resetKey,
	}

	w, h := cfg.GetWindowResolution()
	ebiten.SetWindowSize(w, h)
	ebiten.SetWindowTitle(title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetVsyncEnabled(cfg.Video.VSync)
	ebiten.SetFullscreen(cfg.Window.Fullscreen)
	ebiten.SetScreenFilterEnabled(cfg.Video.Filter == "linear")

	var audioSource *sampleStream
	if cfg.Audio.Enabled {
		audioCtx := audio.NewContext(cfg.Audio.SampleRate)
		audioSource = newSampleStream()
		player, err := audioCtx.NewPlayer(audioSource)
		if err != nil {
			return err
		}
		player.SetVolume(float64(cfg.Audio.Volume))
		player.Play()
	}

	ctx, cancel := context.WithCancel(context.Background())
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		runEmulation(ctx, core, frameCh, inputEvents, resetEvents, audioSource, autosave)
		return nil
	})

	err := ebiten.RunGame(game)
	cancel()
	if waitErr := g.Wait(); waitErr != nil && err == nil {
		err = waitErr
	}
	return err
}

// runEmulation drives the core one vblank at a time, publishing the
// completed frame and streaming samples, until ctx is canceled.
func runEmulation(ctx context.Context, core EmulatorCore, frameCh chan<- [nesWidth * nesHeight]uint32, inputEvents <-chan buttonEvent, resetEvents <-chan struct{}, audioSource *sampleStream, autosave func() error) {
	var lastAutosave time.Time

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-inputEvents:
			core.SetControllerButton(1, ev.button, ev.pressed)
			continue
		case <-resetEvents:
			core.Reset()
			continue
		default:
		}

		core.RunUntilNMI()

		if audioSource != nil {
			audioSource.feed(core.GetAudioSamples())
		}

		select {
		case frameCh <- core.FrameBuffer():
		default:
			// render goroutine hasn't drained the last frame yet; drop this
			// one rather than block emulation on presentation.
			select {
			case <-frameCh:
			default:
			}
			select {
			case frameCh <- core.FrameBuffer():
			default:
			}
		}

		if autosave != nil && time.Since(lastAutosave) >= autosaveInterval {
			if err := autosave(); err == nil {
				lastAutosave = time.Now()
			}
		}
	}
}

// sampleStream adapts the APU's []float32 samples to the io.Reader PCM16LE
// stereo stream ebiten's audio.Player expects, buffering between the
// emulation and audio-callback goroutines.
type sampleStream struct {
	mu  sync.Mutex
	buf []byte
}

func newSampleStream() *sampleStream {
	return &sampleStream{}
}

// feed converts mono [0,1] float samples to interleaved stereo PCM16LE and
// appends them to the pending buffer.
func (s *sampleStream) feed(samples []float32) {
	if len(samples) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range samples {
		v := int16((f*2 - 1) * 32767)
		lo := byte(v)
		hi := byte(v >> 8)
		// left and right channels carry the same mono sample.
		s.buf = append(s.buf, lo, hi, lo, hi)
	}
}

// Read implements io.Reader, draining buffered PCM bytes or emitting
// silence when the emulator hasn't produced samples yet.
func (s *sampleStream) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.buf) == 0 {
		for i := range p {
			p[i] = 0
		}
		return len(p), nil
	}

	n := copy(p, s.buf)
	s.buf = s.buf[n:]
	return n, nil
}
