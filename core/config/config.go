package config

// DSCP is the Differentiated Services Codepoint value to be used by senders
// of time synchronization packets. Valid values must be in range [0, 63].
const DSCP = 63
