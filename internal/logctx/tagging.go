package logctx

import (
	"context"
	"ddpsink/internal/global"
)

// Append new tag to tag list (copy-on-write, parent context is never mutated)
func AppendCtxTag(ctx context.Context, newTag string) (newCtx context.Context) {
	old := GetTagList(ctx)
	tags := append(append([]string(nil), old...), newTag)

	newCtx = context.WithValue(ctx, global.LogTagsKey, tags)
	return
}

// Removes last index of tag list (copy-on-write)
func RemoveLastCtxTag(ctx context.Context) (newCtx context.Context) {
	tags := append([]string(nil), GetTagList(ctx)...)
	if len(tags) > 0 {
		tags = tags[:len(tags)-1]
	}

	newCtx = context.WithValue(ctx, global.LogTagsKey, tags)
	return
}

// Overwrites entire tag list with given list
func OverwriteCtxTag(ctx context.Context, newList []string) (newCtx context.Context) {
	newCtx = context.WithValue(ctx, global.LogTagsKey, append([]string(nil), newList...))
	return
}

// Extracts tag list from context or returns empty list
func GetTagList(ctx context.Context) (tags []string) {
	tags, ok := ctx.Value(global.LogTagsKey).([]string)
	if !ok {
		tags = []string{}
	}
	return
}
