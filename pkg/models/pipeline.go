package models

import (
	"image"
	"sort"
)

// Candidate names produced by a table processor
const (
	CandidateOriginal             = "original"
	CandidateCroppedTable         = "cropped_table"
	CandidatePerspectiveCorrected = "perspective_corrected"
)

// CandidateSet maps a candidate name to the image produced under that name.
// It is created once per request and never shared.
type CandidateSet map[string]image.Image

// Get returns the named candidate, treating nil entries as absent.
func (cs CandidateSet) Get(name string) (image.Image, bool) {
	img, ok := cs[name]
	if !ok || img == nil {
		return nil, false
	}
	return img, true
}

// Names lists the candidates that carry an image, sorted.
func (cs CandidateSet) Names() []string {
	names := make([]string, 0, len(cs))
	for name, img := range cs {
		if img != nil {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// PublishedAsset is a file that was uploaded to the hosting service
type PublishedAsset struct {
	Filename string `json:"filename"`
	URL      string `json:"url"`
}

// SourceKind tags an UploadSource
type SourceKind int

const (
	SourceFile SourceKind = iota + 1
	SourceURL
)

// UploadSource is either an uploaded file or a reference to a remote image.
type UploadSource struct {
	Kind        SourceKind
	Data        []byte
	Filename    string
	ContentType string
	URL         string
}

// FileUpload builds a file-backed source
func FileUpload(data []byte, filename, contentType string) UploadSource {
	return UploadSource{Kind: SourceFile, Data: data, Filename: filename, ContentType: contentType}
}

// RemoteReference builds a URL-backed source
func RemoteReference(url string) UploadSource {
	return UploadSource{Kind: SourceURL, URL: url}
}

// RawImage is a resolved source: undecoded bytes plus the name it came under
type RawImage struct {
	Data     []byte
	Filename string
}
