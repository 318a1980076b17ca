// Package reviewv1 defines the JSON messages and procedure names of the review API.
package reviewv1

const (
	// ReviewServiceName is the fully-qualified name of the ReviewService service.
	ReviewServiceName = "beidou.review.v1.ReviewService"
)

const (
	ReviewServiceRecordAnswerOutcomeProcedure = "/beidou.review.v1.ReviewService/RecordAnswerOutcome"
	ReviewServiceGetDueItemsProcedure         = "/beidou.review.v1.ReviewService/GetDueItems"
	ReviewServiceGetForecastProcedure         = "/beidou.review.v1.ReviewService/GetForecast"
	ReviewServiceGetStatsProcedure            = "/beidou.review.v1.ReviewService/GetStats"
	ReviewServiceEnrollItemsProcedure         = "/beidou.review.v1.ReviewService/EnrollItems"
	ReviewServiceGetHistoryProcedure          = "/beidou.review.v1.ReviewService/GetHistory"
)
