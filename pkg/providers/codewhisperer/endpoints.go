package codewhisperer

import (
	"fmt"
	"strings"
)

// DefaultRegion is used when neither the configuration nor the
// credential's profile ARN names one.
const DefaultRegion = "us-east-1"

// EndpointProfile bundles an endpoint URL with the Origin and
// X-Amz-Target values it requires. Mixing values across endpoints
// produces hard-to-diagnose 403s, so they travel together.
type EndpointProfile struct {
	// Name identifies the endpoint in logs and metrics
	Name string

	// URL is the full request URL
	URL string

	// Origin is the request origin the endpoint expects
	Origin string

	// AmzTarget is the X-Amz-Target header value; empty means the
	// header must not be set
	AmzTarget string
}

// EndpointProfiles returns the endpoint profiles for a region, in
// preference order. The Amazon Q endpoint exists in every region and
// needs no X-Amz-Target header; the CodeWhisperer endpoint is the
// legacy fallback and only exists in us-east-1.
func EndpointProfiles(region string) []EndpointProfile {
	if region == "" {
		region = DefaultRegion
	}
	return []EndpointProfile{
		{
			Name:   "amazonq",
			URL:    fmt.Sprintf("https://q.%s.amazonaws.com/generateAssistantResponse", region),
			Origin: "AI_EDITOR",
		},
		{
			Name:      "codewhisperer",
			URL:       fmt.Sprintf("https://codewhisperer.%s.amazonaws.com/generateAssistantResponse", region),
			Origin:    "AI_EDITOR",
			AmzTarget: "AmazonCodeWhispererStreamingService.GenerateAssistantResponse",
		},
	}
}

// RegionFromProfileARN extracts the region from a profile ARN of the
// form arn:aws:codewhisperer:REGION:ACCOUNT:profile/ID. It returns ""
// when the ARN does not carry one.
func RegionFromProfileARN(arn string) string {
	if arn == "" {
		return ""
	}
	parts := strings.Split(arn, ":")
	if len(parts) >= 4 && parts[3] != "" {
		return parts[3]
	}
	return ""
}
