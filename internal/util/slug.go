package util

import (
	"fmt"

	"github.com/gosimple/slug"
)

// UniqueSlug slugifies name and appends -1, -2, ... until exists reports false.
func UniqueSlug(name string, exists func(candidate string) (bool, error)) (string, error) {
	base := slug.Make(name)
	if base == "" {
		base = "untitled"
	}
	result := base
	for i := 1; ; i++ {
		taken, err := exists(result)
		if err != nil {
			return "", err
		}
		if !taken {
			return result, nil
		}
		result = fmt.Sprintf("%s-%d", base, i)
	}
}
