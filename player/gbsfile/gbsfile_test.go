package gbsfile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildHeader(t *testing.T, songCount, firstSong uint8, loadAddr, initAddr, playAddr, sp uint16, driver []byte) []byte {
	t.Helper()
	data := make([]byte, headerSize+len(driver))
	copy(data[magicOffset:], magic)
	data[versionOffset] = 1
	data[songCountOffset] = songCount
	data[firstSongOffset] = firstSong
	data[loadAddressOffset] = byte(loadAddr)
	data[loadAddressOffset+1] = byte(loadAddr >> 8)
	data[initAddressOffset] = byte(initAddr)
	data[initAddressOffset+1] = byte(initAddr >> 8)
	data[playAddressOffset] = byte(playAddr)
	data[playAddressOffset+1] = byte(playAddr >> 8)
	data[stackPointerOffset] = byte(sp)
	data[stackPointerOffset+1] = byte(sp >> 8)
	copy(data[titleOffset:], "Test Song\x00\x00")
	copy(data[headerSize:], driver)
	return data
}

func TestParse_ValidHeader(t *testing.T) {
	driver := []byte{0xC9} // RET
	data := buildHeader(t, 3, 1, 0x0070, 0x0070, 0x0080, 0xFFFE, driver)

	f, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, uint8(3), f.SongCount)
	assert.Equal(t, uint8(1), f.FirstSong)
	assert.Equal(t, uint16(0x0070), f.LoadAddress)
	assert.Equal(t, uint16(0x0070), f.InitAddress)
	assert.Equal(t, uint16(0x0080), f.PlayAddress)
	assert.Equal(t, uint16(0xFFFE), f.StackPointer)
	assert.Equal(t, "Test Song", f.Title)
	assert.Equal(t, uint8(0xC9), f.ROM[0x0070])
}

func TestParse_RejectsBadMagic(t *testing.T) {
	data := buildHeader(t, 1, 1, 0x70, 0x70, 0x80, 0xFFFE, nil)
	data[0] = 'X'

	_, err := Parse(data)
	assert.Error(t, err)
}

func TestParse_RejectsTruncatedHeader(t *testing.T) {
	_, err := Parse(make([]byte, 10))
	assert.Error(t, err)
}

func TestParse_RejectsOverrunningDriver(t *testing.T) {
	driver := make([]byte, MaxROMSize-0xFF00+1) // one byte past the image end
	data := buildHeader(t, 1, 1, 0xFF00, 0xFF00, 0xFF10, 0xFFFE, driver)

	_, err := Parse(data)
	assert.Error(t, err)
}

func TestParse_ZeroFirstSongDefaultsToOne(t *testing.T) {
	data := buildHeader(t, 2, 0, 0x70, 0x70, 0x80, 0xFFFE, nil)

	f, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, uint8(1), f.FirstSong)
}

func TestSongIndex_ClampsOutOfRangeToFirstSong(t *testing.T) {
	f := &File{SongCount: 5, FirstSong: 2}

	assert.Equal(t, uint8(2), f.SongIndex(0))
	assert.Equal(t, uint8(2), f.SongIndex(99))
	assert.Equal(t, uint8(3), f.SongIndex(3))
}
