package config

const (
	// MaxFolderNameLength is the maximum length for folder display names.
	// Limited to 255 to fit in PostgreSQL VARCHAR(255) and provide
	// reasonable UX (names should be short and descriptive).
	MaxFolderNameLength = 255

	// MaxSlugLength is the maximum length for folder slugs. Slugs derive
	// from names, so the bound matches MaxFolderNameLength.
	MaxSlugLength = 255
)
