package audio

// Provider is the debug-control surface the CLI/backends use to inspect
// and mute individual channels while a song plays. Sample generation
// itself lives in player/synth, which reads an APU's Channels()/WaveRAM()
// each tick; this interface only covers state APU owns directly.
type Provider interface {
	ToggleChannel(channel int)
	SoloChannel(channel int)
	GetChannelStatus() (ch1, ch2, ch3, ch4 bool)
}

var _ Provider = (*APU)(nil)
