package config

type WorkerKeyStruct struct {
	PersistUsageCountsQueue string
}

var WorkerKey = &WorkerKeyStruct{
	PersistUsageCountsQueue: "persist_usage_counts_queue",
}
