package game

import (
	"io"
	"math"
	"sync/atomic"
	"time"

	"github.com/hajimehoshi/oto/v2"
)

const (
	SampleRate   = 44100
	ChannelCount = 2
	BitDepth     = 0 // 32-bit float (oto.FormatFloat32LE)
)

// SoundKind identifies the fixed cue sounds.
type SoundKind int

const (
	SoundBlip SoundKind = iota
	SoundRecordStart
	SoundRecordStop
	SoundReload
)

// AudioSystem plays procedural sound effects.
type AudioSystem struct {
	ctx   *oto.Context
	ready chan struct{}
}

var globalAudio *AudioSystem

// activeCrashes limits simultaneous crash sounds to avoid speaker clipping.
var activeCrashes int32
var crashVariantCounter uint64

var sfxVolume = 0.58

// InitAudio initializes the audio system.
func InitAudio() error {
	ctx, ready, err := oto.NewContext(SampleRate, ChannelCount, BitDepth)
	if err != nil {
		return err
	}
	globalAudio = &AudioSystem{ctx: ctx, ready: ready}
	return nil
}

func audioReady() bool {
	if globalAudio == nil {
		return false
	}
	select {
	case <-globalAudio.ready:
		return true
	default:
		return false
	}
}

// PlaySound plays one of the cue sounds.
func PlaySound(kind SoundKind) {
	if !audioReady() {
		return
	}
	play(generateSound(kind), 1, nil)
}

// PlayCrash plays an impact whose weight scales with strength in [0, 1].
func PlayCrash(strength float64) {
	if !audioReady() || strength <= 0 {
		return
	}
	if atomic.LoadInt32(&activeCrashes) >= 2 {
		return
	}
	atomic.AddInt32(&activeCrashes, 1)
	play(genCrash(strength), 0.5+0.5*strength, func() { atomic.AddInt32(&activeCrashes, -1) })
}

func play(samples []byte, gain float64, done func()) {
	if len(samples) == 0 {
		if done != nil {
			done()
		}
		return
	}
	go func() {
		if done != nil {
			defer done()
		}
		player := globalAudio.ctx.NewPlayer(&soundReader{data: samples})
		player.SetVolume(sfxVolume * clampF(gain, 0, 1))
		player.Play()
		for player.IsPlaying() {
			time.Sleep(10 * time.Millisecond)
		}
		player.Close()
	}()
}

type soundReader struct {
	data []byte
	pos  int
}

func (r *soundReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.data) {
		return 0, io.EOF
	}
	n := copy(p, r.data[r.pos:])
	r.pos += n
	return n, nil
}

// putStereoF32 writes a [-1,1] sample as float32 LE to both stereo channels at frame i.
func putStereoF32(buf []byte, i int, sample float64) {
	v := math.Float32bits(float32(sample))
	for c := 0; c < 2; c++ {
		o := i*8 + c*4
		buf[o] = byte(v)
		buf[o+1] = byte(v >> 8)
		buf[o+2] = byte(v >> 16)
		buf[o+3] = byte(v >> 24)
	}
}

// softSat applies gentle saturation.
func softSat(x float64) float64 {
	if x > 1.0 {
		return 1.0 - 0.5/x
	}
	if x < -1.0 {
		return -1.0 + 0.5/(-x)
	}
	return x - x*x*x/3.0
}

// adsr returns an envelope at normalized progress [0,1].
// attack/decay/release are fractions of the total duration.
func adsr(progress, attack, decay, sustain, release float64) float64 {
	switch {
	case progress < attack:
		return progress / attack
	case progress < attack+decay:
		return 1.0 - (progress-attack)/decay*(1.0-sustain)
	case progress < 1.0-release:
		return sustain
	default:
		return sustain * (1.0 - (progress-(1.0-release))/release)
	}
}

// fm returns an FM-synthesized sample.
func fm(t, carrier, modRatio, modIdx float64) float64 {
	mod := math.Sin(2 * math.Pi * carrier * modRatio * t)
	return math.Sin(2*math.Pi*carrier*t + modIdx*mod)
}

// lcg advances an LCG seed and returns a noise sample in [-1,1].
func lcg(seed *uint64) float64 {
	*seed = *seed*6364136223846793005 + 1442695040888963407
	return float64(int64(*seed>>33)-int64(1<<30)) / float64(1<<30)
}

// makeBuf allocates a stereo float32 buffer for n samples.
func makeBuf(n int) []byte { return make([]byte, n*8) }

func generateSound(kind SoundKind) []byte {
	switch kind {
	case SoundBlip:
		return genTone(1400, 700, 0.065)
	case SoundRecordStart:
		return genChirp([]float64{659.25, 987.77})
	case SoundRecordStop:
		return genChirp([]float64{987.77, 659.25})
	case SoundReload:
		return genTone(880, 880, 0.05)
	}
	return nil
}

// genTone is a short FM sweep from f0 to f1.
func genTone(f0, f1, dur float64) []byte {
	n := int(dur * SampleRate)
	buf := makeBuf(n)
	for i := 0; i < n; i++ {
		t := float64(i) / SampleRate
		p := float64(i) / float64(n)
		env := adsr(p, 0.004, 0.55, 0.0, 0.1)
		s := fm(t, lerp(f0, f1, p), 1.0, 0.6) * env * 0.38
		putStereoF32(buf, i, softSat(s))
	}
	return buf
}

// genChirp plays notes back to back as FM bells.
func genChirp(freqs []float64) []byte {
	noteLen := SampleRate * 90 / 1000
	n := noteLen * len(freqs)
	buf := makeBuf(n)
	for i := 0; i < n; i++ {
		fi := i / noteLen
		j := i - fi*noteLen
		t := float64(j) / SampleRate
		env := adsr(float64(j)/float64(noteLen), 0.01, 0.4, 0.2, 0.4)
		s := fm(t, freqs[fi], 2.0, 2.5*env) * env * 0.32
		putStereoF32(buf, i, softSat(s))
	}
	return buf
}

// genCrash is a metallic thump. Heavier impulses give a longer, lower body
// and less high crunch.
func genCrash(strength float64) []byte {
	norm := clampF(strength, 0, 1)
	dur := 0.22 + 0.45*norm
	n := int(dur * SampleRate)
	buf := makeBuf(n)
	seed := atomic.AddUint64(&crashVariantCounter, 1) ^
		uint64(time.Now().UnixNano()) ^
		uint64(strength*4096)
	lp1, lp2 := 0.0, 0.0
	thudPhase := 0.0
	for i := 0; i < n; i++ {
		p := float64(i) / float64(n)
		t := float64(i) / SampleRate

		// Body thud sweeping down.
		f := (120 - 50*norm) * math.Pow(0.45, p)
		thudPhase += 2 * math.Pi * f / SampleRate
		thud := math.Sin(thudPhase) * math.Exp(-p*(6.5-3.0*norm)) * (0.5 + 0.3*norm)

		// Crunch: bandpassed noise.
		raw := lcg(&seed)
		lp1 = lp1*0.6 + raw*0.4
		lp2 = lp2*0.96 + raw*0.04
		crunch := (lp1 - lp2) * math.Exp(-p*(9-3*norm)) * (0.45 - 0.15*norm)

		// Panel ring: inharmonic partials.
		ring := (fm(t, 430, 1.41, 1.8) + 0.6*fm(t, 1170, 0.73, 1.1)) *
			math.Exp(-p*14) * 0.12

		putStereoF32(buf, i, softSat((thud+crunch+ring)*0.9))
	}
	return buf
}
