package config

import (
	"fmt"
)

// GetVersion is the version of the byte encodings produced by this build.
func GetVersion() []byte {
	return []byte{0x01, 0x00, 0x00}
}

// GetMinimumVersion is the oldest encoding version still decoded. Its major
// byte is the minimum envelope version accepted by the codec.
func GetMinimumVersion() []byte {
	return []byte{0x01, 0x00, 0x00}
}

func GetVersionString() string {
	return FormatVersion(GetVersion())
}

func FormatVersion(version []byte) string {
	if len(version) == 3 {
		return fmt.Sprintf(
			"%d.%d.%d",
			version[0], version[1], version[2],
		)
	} else {
		return fmt.Sprintf(
			"%d.%d.%d-p%d",
			version[0], version[1], version[2], version[3],
		)
	}
}
