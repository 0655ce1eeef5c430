package timezone

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDate(t *testing.T) {
	moment := time.Date(2024, 3, 1, 23, 59, 0, 0, time.UTC)
	require.Equal(t, "2024/03/01", Date(moment))

	est, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatal(err)
	}
	// 10pm EST on Feb 29 is already March 1 in UTC
	require.Equal(t, "2024/03/01", Date(time.Date(2024, 2, 29, 22, 0, 0, 0, est)))
}

func TestCacheEpoch(t *testing.T) {
	expected := time.Date(2024, 3, 2, 0, 1, 0, 0, time.UTC)

	// the cutover is the same absolute instant no matter when during
	// the day it is computed
	require.Equal(t, expected, CacheEpoch(time.Date(2024, 3, 1, 0, 0, 1, 0, time.UTC)))
	require.Equal(t, expected, CacheEpoch(time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)))
	require.Equal(t, expected, CacheEpoch(time.Date(2024, 3, 1, 23, 59, 59, 0, time.UTC)))
}
