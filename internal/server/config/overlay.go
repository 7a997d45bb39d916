package config

import (
	"time"

	"github.com/dmitrijs2005/discbaboons/internal/timex"
)

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v timex.Duration) {
	if v != 0 {
		*dst = v.Std()
	}
}
