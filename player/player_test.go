package player

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildGBS assembles a minimal but complete GBS file: header plus a driver
// blob with an init routine (power on APU, trigger a tone, RET) and a play
// routine that just spins, enough to exercise LoadGBS/PlaySong/FillBuffer/
// ReadSamples without needing a real song.
func buildGBS(t *testing.T, songCount, firstSong uint8) []byte {
	t.Helper()

	const (
		headerSize  = 0x70
		loadAddress = 0x0070
		initAddress = 0x0070
		playAddress = 0x0090
		stackPtr    = 0xFFFE
	)

	init := []byte{
		0x3E, 0x80, 0xE0, 0x26, // LD A,0x80 ; LDH (NR52),A
		0x3E, 0xFF, 0xE0, 0x25, // LD A,0xFF ; LDH (NR51),A
		0x3E, 0x77, 0xE0, 0x24, // LD A,0x77 ; LDH (NR50),A
		0x3E, 0x80, 0xE0, 0x11, // LD A,0x80 ; LDH (NR11),A
		0x3E, 0xF0, 0xE0, 0x12, // LD A,0xF0 ; LDH (NR12),A
		0x3E, 0x00, 0xE0, 0x13, // LD A,0x00 ; LDH (NR13),A
		0x3E, 0x84, 0xE0, 0x14, // LD A,0x84 ; LDH (NR14),A
		0xC9, // RET
	}
	play := []byte{0x18, 0xFE} // JR -2

	driver := make([]byte, int(playAddress-loadAddress)+len(play))
	copy(driver, init)
	copy(driver[playAddress-loadAddress:], play)

	data := make([]byte, headerSize+len(driver))
	copy(data[0:3], "GBS")
	data[3] = 1
	data[4] = songCount
	data[5] = firstSong
	data[6] = byte(loadAddress)
	data[7] = byte(loadAddress >> 8)
	data[8] = byte(initAddress)
	data[9] = byte(initAddress >> 8)
	data[10] = byte(playAddress)
	data[11] = byte(playAddress >> 8)
	data[12] = byte(stackPtr)
	data[13] = byte(stackPtr >> 8)
	copy(data[0x10:], "Test Song\x00")
	copy(data[headerSize:], driver)

	return data
}

func TestLoadGBS_StartsAtFirstSong(t *testing.T) {
	p, err := LoadGBS(buildGBS(t, 4, 2))
	require.NoError(t, err)
	assert.Equal(t, 4, p.SongCount())
	assert.Equal(t, 2, p.CurrentSong())
	assert.Equal(t, "Test Song", p.Title())
}

func TestLoadGBS_RejectsMalformedFile(t *testing.T) {
	_, err := LoadGBS([]byte("not a gbs file"))
	assert.Error(t, err)
}

func TestPlaySong_ClampsOutOfRangeIndex(t *testing.T) {
	p, err := LoadGBS(buildGBS(t, 3, 1))
	require.NoError(t, err)

	p.PlaySong(99)
	assert.Equal(t, 1, p.CurrentSong())
}

func TestAdvance_WrapsSongIndexModuloSongCount(t *testing.T) {
	p, err := LoadGBS(buildGBS(t, 3, 1))
	require.NoError(t, err)

	p.PlaySong(3)
	p.advance()
	assert.Equal(t, 1, p.CurrentSong(), "song 3 of 3 wraps back to song 1")

	p.advance()
	assert.Equal(t, 2, p.CurrentSong())
}

func TestAdvance_RebuildsCPUAndMMUForNewSong(t *testing.T) {
	p, err := LoadGBS(buildGBS(t, 2, 1))
	require.NoError(t, err)

	oldCPU, oldMMU := p.cpu, p.mmu
	p.advance()

	assert.NotSame(t, oldCPU, p.cpu)
	assert.NotSame(t, oldMMU, p.mmu)
}

func TestFillBufferAndReadSamples_ProducesAudio(t *testing.T) {
	p, err := LoadGBS(buildGBS(t, 1, 1))
	require.NoError(t, err)

	p.FillBuffer()
	out := make([]int8, 4096)
	n := p.ReadSamples(out)
	assert.Greater(t, n, 0)
}
