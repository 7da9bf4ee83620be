package pipeline

import (
	"regexp"
	"strings"

	"rocketpass/internal/util"
)

const filePrefix = "File:"

var (
	reImageExt = regexp.MustCompile(`(?i)\.(png|jpg|jpeg|gif)$`)

	// Applied in order, each at most once.
	imageNameSuffixes = []string{"IconRL", "RL", "_icon", " icon"}
)

// NormalizeImageName turns an image key or alt text such as
// "RocketBoostIconRL.png" into a display name ("Rocket Boost").
func NormalizeImageName(raw string) string {
	name := reImageExt.ReplaceAllString(raw, "")
	for _, suffix := range imageNameSuffixes {
		name = util.TrimSuffixFold(name, suffix)
	}
	name = strings.ReplaceAll(name, "_", " ")
	name = util.SplitCamelCase(name)
	return cleanFilePrefix(strings.TrimSpace(name))
}

// cleanFilePrefix strips a leading wiki "File:" namespace and the image
// extension that comes with it.
func cleanFilePrefix(name string) string {
	if !strings.HasPrefix(name, filePrefix) {
		return name
	}
	name = strings.TrimPrefix(name, filePrefix)
	name = reImageExt.ReplaceAllString(name, "")
	return strings.TrimSpace(name)
}

func looksLikeMarkup(text string) bool {
	return strings.HasPrefix(text, "<")
}
