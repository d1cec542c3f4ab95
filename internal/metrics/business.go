package metrics

// LimitRejected records a request stopped by the usage gate.
func LimitRejected(kind string) {
	LimitRejectionsTotal.WithLabelValues(kind).Inc()
}

// UsageIncremented records a metered action.
func UsageIncremented(kind string) {
	UsageIncrementsTotal.WithLabelValues(kind).Inc()
}

// SubscriptionsDowngraded records n downgrades.
func SubscriptionsDowngraded(n int64) {
	if n > 0 {
		SubscriptionDowngradesTotal.Add(float64(n))
	}
}

// StreaksReset records n streak resets.
func StreaksReset(n int64) {
	if n > 0 {
		StreakResetsTotal.Add(float64(n))
	}
}

// ImageProcessed records one pipeline run and, on success, its sizes.
func ImageProcessed(purpose string, rawBytes, processedBytes int, err error) {
	if err != nil {
		ImagesProcessedTotal.WithLabelValues(purpose, "failed").Inc()
		return
	}
	ImagesProcessedTotal.WithLabelValues(purpose, "ok").Inc()
	ImageBytes.WithLabelValues("raw").Observe(float64(rawBytes))
	ImageBytes.WithLabelValues("processed").Observe(float64(processedBytes))
}
