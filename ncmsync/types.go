package ncmsync

// RawRecord is one reference entry as fetched from an upstream, before
// normalization. Both upstreams are mapped into this shape.
type RawRecord struct {
	Codigo    string
	Descricao string
	Tipo      string
}

type TriggerSyncResponse struct {
	Success          bool   `json:"success"`
	TotalProcessados int    `json:"total_processados"`
	Inseridos        int    `json:"inseridos"`
	Message          string `json:"message"`
}

type SyncHistoryResponse struct {
	Items []SyncRunResponse `json:"items"`
}

type SyncRunResponse struct {
	ID            uint    `json:"id"`
	Source        string  `json:"source"`
	Status        string  `json:"status"`
	StartedAt     *string `json:"startedAt"`
	FinishedAt    *string `json:"finishedAt"`
	DurationMs    int64   `json:"durationMs"`
	Processed     int     `json:"processed"`
	Inserted      int     `json:"inserted"`
	FailedBatches int     `json:"failedBatches"`
	TriggeredBy   string  `json:"triggeredBy"`
	Message       string  `json:"message"`
}

type SyncRunDetailResponse struct {
	SyncRunResponse
	Errors []SyncErrorResponse `json:"errors"`
}

type SyncErrorResponse struct {
	ID         uint   `json:"id"`
	BatchIndex int    `json:"batchIndex"`
	Message    string `json:"message"`
	Retryable  bool   `json:"retryable"`
}

type PubSubPushEnvelope struct {
	Message struct {
		Data []byte `json:"data"`
		ID   string `json:"messageId"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}

type SyncPubSubPayload struct {
	RunId uint `json:"run_id"`
}
