package domain

// ImageKind identifies which profile image slot an upload targets.
type ImageKind string

const (
	ImageKindAvatar ImageKind = "avatar"
	ImageKindCover  ImageKind = "coverImage"
)

// MediaAsset describes a file stored on the media host.
type MediaAsset struct {
	URL         string
	Key         string
	ContentType string
	Size        int64
}
