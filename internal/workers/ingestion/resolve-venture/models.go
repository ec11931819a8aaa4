// internal/workers/ingestion/resolve-venture/models.go
package resolveventure

const (
	cacheKeyPrefix = "cobuilder:channel:"
	// negativeMarker is cached for channels with no mapping.
	negativeMarker = "none"
)

func cacheKey(channelID string) string {
	return cacheKeyPrefix + channelID
}
