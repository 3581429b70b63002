package loader

import (
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/glbloader/pkg/glb"
	"github.com/Faultbox/glbloader/pkg/gltfdoc"
)

// SupportedMajorVersion is the glTF major version this loader reads.
const SupportedMajorVersion = 2

// AssetInfo is the document's asset metadata.
type AssetInfo struct {
	Version    string
	MinVersion string
	Generator  string
	Copyright  string
}

// Asset returns the metadata of the current document.
func (l *Loader) Asset() AssetInfo { return l.asset }

func (l *Loader) parseContainer(int) (int, error) {
	c, err := glb.Parse(l.data)
	if err != nil {
		return 0, err
	}
	l.container = c
	l.log.Debug("container parsed",
		zap.Uint32("version", c.Version),
		zap.Int("jsonBytes", len(c.JSONText)),
		zap.Int("binBytes", c.BinaryLength))
	return sectionComplete, nil
}

func (l *Loader) parseJSON(int) (int, error) {
	doc, err := gltfdoc.Decode(l.container.JSONText)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if !doc.Is(gltfdoc.Object) {
		return 0, fmt.Errorf("%w: top level is %s, want Object", ErrInvalidDocument, doc.Kind())
	}
	l.doc = doc
	return sectionComplete, nil
}

func (l *Loader) parseAssetMetadata(int) (int, error) {
	asset, ok := l.doc.OptObject("asset")
	if !ok {
		l.log.Warn("document has no asset metadata")
		return sectionComplete, nil
	}
	l.asset = AssetInfo{
		Version:    asset.OptString("version", ""),
		MinVersion: asset.OptString("minVersion", ""),
		Generator:  asset.OptString("generator", ""),
		Copyright:  asset.OptString("copyright", ""),
	}
	for _, v := range []struct{ field, value string }{
		{"version", l.asset.Version},
		{"minVersion", l.asset.MinVersion},
	} {
		if v.value == "" {
			continue
		}
		major, err := majorVersion(v.value)
		if err != nil || major != SupportedMajorVersion {
			return 0, fmt.Errorf("%w: asset %s %q is not supported", ErrInvalidDocument, v.field, v.value)
		}
	}
	if l.asset.Version == "" {
		l.log.Warn("asset has no version")
	}
	l.log.Debug("asset",
		zap.String("version", l.asset.Version),
		zap.String("generator", l.asset.Generator))
	return sectionComplete, nil
}

func majorVersion(v string) (int, error) {
	major, _, _ := strings.Cut(v, ".")
	return strconv.Atoi(major)
}
