package credential

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Version and environment tables the fingerprint draws from. The seed
// hash indexes into these, so one credential always presents the same
// client identity.
var (
	sdkVersions  = []string{"1.0.20", "1.0.22", "1.0.24", "1.0.25", "1.0.27"}
	ideVersions  = []string{"0.3.0", "0.4.0", "0.5.0", "0.6.0", "0.7.0", "0.8.0"}
	nodeVersions = []string{"18.20.4", "20.18.0", "22.11.0", "22.21.1"}

	osTypes        = []string{"darwin", "win32", "linux"}
	darwinVersions = []string{"24.0.0", "24.1.0", "24.2.0", "24.4.0", "24.6.0"}
	win32Versions  = []string{"10.0.19045", "10.0.22621", "10.0.22631"}
	linuxVersions  = []string{"6.5.0", "6.8.0", "6.11.0"}

	acceptLanguages = []string{
		"en-US,en;q=0.9",
		"en-GB,en;q=0.9",
		"zh-CN,zh;q=0.9,en;q=0.8",
		"ja-JP,ja;q=0.9,en;q=0.8",
		"de-DE,de;q=0.9,en;q=0.8",
		"fr-FR,fr;q=0.9,en;q=0.8",
	}
	screenResolutions = []string{
		"1920x1080", "2560x1440", "3840x2160", "1440x900", "2560x1600", "3024x1964",
	}
	colorDepths = []uint8{24, 30, 32}
)

const (
	minCores    = 4
	maxCores    = 32
	minTZOffset = -720
	maxTZOffset = 720
)

// Fingerprint is a deterministic device profile presented to the
// backend. Deriving it from the credential's seed keeps the identity
// stable across restarts instead of looking like a new machine on every
// request.
type Fingerprint struct {
	SDKVersion          string `json:"sdkVersion"`
	OSType              string `json:"osType"`
	OSVersion           string `json:"osVersion"`
	NodeVersion         string `json:"nodeVersion"`
	IDEVersion          string `json:"ideVersion"`
	IDEHash             string `json:"ideHash"`
	AcceptLanguage      string `json:"acceptLanguage"`
	ScreenResolution    string `json:"screenResolution"`
	ColorDepth          uint8  `json:"colorDepth"`
	HardwareConcurrency uint8  `json:"hardwareConcurrency"`
	TimezoneOffset      int16  `json:"timezoneOffset"`
	MachineID           string `json:"machineId"`
}

// NewFingerprint derives the profile from a seed, typically the
// credential's refresh token.
func NewFingerprint(seed string) Fingerprint {
	hash := sha256.Sum256([]byte(seed))

	osType := osTypes[int(hash[3])%len(osTypes)]
	var osVersion string
	switch osType {
	case "darwin":
		osVersion = darwinVersions[int(hash[7])%len(darwinVersions)]
	case "win32":
		osVersion = win32Versions[int(hash[7])%len(win32Versions)]
	default:
		osVersion = linuxVersions[int(hash[7])%len(linuxVersions)]
	}

	ideVersion := ideVersions[int(hash[1])%len(ideVersions)]
	tzRange := maxTZOffset - minTZOffset + 1
	tzOffset := int(hash[9])*256 + int(hash[10])

	return Fingerprint{
		SDKVersion:          sdkVersions[int(hash[0])%len(sdkVersions)],
		OSType:              osType,
		OSVersion:           osVersion,
		NodeVersion:         nodeVersions[int(hash[2])%len(nodeVersions)],
		IDEVersion:          ideVersion,
		IDEHash:             sha256Hex(fmt.Sprintf("kiro-%s-%s", ideVersion, seed)),
		AcceptLanguage:      acceptLanguages[int(hash[4])%len(acceptLanguages)],
		ScreenResolution:    screenResolutions[int(hash[5])%len(screenResolutions)],
		ColorDepth:          colorDepths[int(hash[6])%len(colorDepths)],
		HardwareConcurrency: minCores + hash[8]%(maxCores-minCores+1),
		TimezoneOffset:      int16(minTZOffset + tzOffset%tzRange),
		MachineID:           sha256Hex("machine-" + seed),
	}
}

// UserAgent renders the primary User-Agent header value.
func (f Fingerprint) UserAgent() string {
	return fmt.Sprintf(
		"aws-sdk-js/%s ua/2.1 os/%s#%s lang/js md/nodejs#%s api/codewhispererstreaming#%s m/E KiroIDE-%s-%s",
		f.SDKVersion, f.OSType, f.OSVersion, f.NodeVersion, f.SDKVersion, f.IDEVersion, f.MachineID,
	)
}

// AmzUserAgent renders the x-amz-user-agent header value.
func (f Fingerprint) AmzUserAgent() string {
	return fmt.Sprintf("aws-sdk-js/%s KiroIDE-%s-%s", f.SDKVersion, f.IDEVersion, f.MachineID)
}

func sha256Hex(input string) string {
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])
}
