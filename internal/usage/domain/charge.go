package domain

import "github.com/wifinitylabs/wifinity/internal/money"

const bytesPerGiB = 1 << 30

// DataCharge converts a byte total to gigabytes and prices it at ratePerGB.
// Metering with no rate attached produces no charge: plans may track usage
// for quota and alerting without monetizing it.
func DataCharge(totalBytes int64, ratePerGB *float64) float64 {
	if ratePerGB == nil || totalBytes <= 0 {
		return 0
	}
	gb := float64(totalBytes) / float64(bytesPerGiB)
	return money.Mul(*ratePerGB, gb)
}

// TimeCharge prices accumulated connection hours at ratePerHour.
func TimeCharge(hours float64, ratePerHour *float64) float64 {
	if ratePerHour == nil || hours <= 0 {
		return 0
	}
	return money.Mul(*ratePerHour, hours)
}
