package metrics

const (
	ProbePktsDiscardedH = "The total number of datagrams discarded before acceptance"
	ProbePktsDiscardedN = "sntpsend_probe_pkts_discarded"
	ProbePktsReceivedH  = "The total number of datagrams received"
	ProbePktsReceivedN  = "sntpsend_probe_pkts_received"
	ProbeReqsSentH      = "The total number of requests sent"
	ProbeReqsSentN      = "sntpsend_probe_reqs_sent"
	ProbeRespsAcceptedH = "The total number of responses accepted"
	ProbeRespsAcceptedN = "sntpsend_probe_resps_accepted"
	ProbeTimeoutsH      = "The total number of receive timeouts"
	ProbeTimeoutsN      = "sntpsend_probe_timeouts"
)
