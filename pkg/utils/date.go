package utils

import (
	"fmt"
	"time"
)

// wib is Western Indonesia Time, the zone the gateway reports times in.
var wib = time.FixedZone("WIB", 7*60*60)

// ConvertDateTimeWibToUnixTimestamp parses a gateway timestamp such as
// "2020-01-09 18:27:19".
func ConvertDateTimeWibToUnixTimestamp(wibTime string) (int64, error) {
	t, err := time.ParseInLocation(time.DateTime, wibTime, wib)
	if err != nil {
		return 0, fmt.Errorf("error parsing time: %v", err)
	}

	return t.Unix(), nil
}
