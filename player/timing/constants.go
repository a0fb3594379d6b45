package timing

// SampleRate is the output rate player/synth renders at and
// player/scheduler paces its ring buffer against.
const SampleRate = 44100

// RingBufferSize is the SPSC ring buffer's capacity in stereo sample
// frames. It must be a power of two so the consumer/producer indices can
// wrap with a plain bitmask instead of a modulo.
const RingBufferSize = 1 << 14

// DefaultSongLengthSamples is how long a song plays at full volume before
// fadeout begins, absent a length hint from the GBS player, expressed in
// sample frames rather than wall-clock time.
const DefaultSongLengthSamples = 90 * SampleRate

// FadeoutStartGain is the gain the scheduler's fadeout jumps to on the
// first ~60Hz driver frame tick after a song's length has elapsed (not
// 1.0 - the ramp starts just short of full volume).
const FadeoutStartGain = 0.999

// FadeoutStep is how much the fadeout gain drops on every subsequent
// ~60Hz tick until it reaches zero. At 0.999 start and 0.001/tick, the
// ramp runs 999 ticks, roughly 16.65s of real time at a 60Hz tick rate -
// not the 5s a flat per-sample ramp would give.
const FadeoutStep = 0.001

// MuteSampleThreshold is how many consecutive near-silent samples the
// scheduler tolerates before treating a song as finished and advancing.
const MuteSampleThreshold = 4 * SampleRate
