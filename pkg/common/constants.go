package common

const (
	// Redis keys of the signal repository, each prefixed with storage.redis_prefix.
	RedisKeySignalData  = "%s:data"
	RedisKeySignalOrder = "%s:order"
	RedisKeySignalSeq   = "%s:seq"
	RedisKeySummaryRef  = "%s:summary_message_id"

	// Bolt buckets of the signal repository.
	BoltBucketSignals = "signals"
	BoltBucketOrder   = "order"
	BoltBucketMeta    = "meta"

	// MetaKeySummaryRef names the summary message pointer in the bolt meta bucket
	// and the signal_meta table.
	MetaKeySummaryRef = "summary_message_id"

	CacheKeyAllSignals = "signals:all"
	CacheKeySignal     = "signals:id:%s"
)
