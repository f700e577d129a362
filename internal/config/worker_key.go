package config

type WorkerKeyStruct struct {
	PersistVersionsQueue string
}

var WorkerKey = &WorkerKeyStruct{
	PersistVersionsQueue: "persist_versions_queue",
}
