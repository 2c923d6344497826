package entities

// MergeBook copies every specified field of source into target.
//
// Strings are only copied when non-empty and remote ids only when they are not
// UnsetRemoteID, so a remote payload that blanks a title cannot erase it.
// Numeric fields are copied whenever present. Merge never persists anything.
func MergeBook(target *Book, source BookPatch) {
	mergeRemoteID(&target.RemoteID, source.RemoteID)
	mergeString(&target.Title, source.Title)
	mergeString(&target.Author, source.Author)
	mergeOptionalString(&target.CoverImageURL, source.CoverImageURL)
	mergeOptional(&target.PageCount, source.PageCount)
	if source.State != nil && *source.State != "" {
		target.State = *source.State
	}
	mergeValue(&target.CurrentPosition, source.CurrentPosition)
	mergeOptional(&target.CurrentPositionTimestampMs, source.CurrentPositionTimestampMs)
	mergeOptional(&target.FirstPositionTimestampMs, source.FirstPositionTimestampMs)
	mergeOptionalString(&target.ClosingRemark, source.ClosingRemark)
}

func MergeSession(target *Session, source SessionPatch) {
	mergeRemoteID(&target.RemoteID, source.RemoteID)
	mergeValue(&target.StartPosition, source.StartPosition)
	mergeValue(&target.EndPosition, source.EndPosition)
	mergeValue(&target.DurationSeconds, source.DurationSeconds)
	mergeValue(&target.TimestampMs, source.TimestampMs)
}

func MergeQuote(target *Quote, source QuotePatch) {
	mergeRemoteID(&target.RemoteID, source.RemoteID)
	mergeString(&target.Content, source.Content)
	mergeValue(&target.Position, source.Position)
	mergeOptional(&target.AddTimestampMs, source.AddTimestampMs)
}

func mergeValue[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// mergeOptional stores a copy so target never aliases the patch.
func mergeOptional[T any](dst **T, src *T) {
	if src != nil {
		v := *src
		*dst = &v
	}
}

func mergeString(dst *string, src *string) {
	if src != nil && *src != "" {
		*dst = *src
	}
}

func mergeOptionalString(dst **string, src *string) {
	if src != nil && *src != "" {
		mergeOptional(dst, src)
	}
}

func mergeRemoteID(dst **int64, src *int64) {
	if src != nil && *src != UnsetRemoteID {
		mergeOptional(dst, src)
	}
}
