// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package discovery implements brokerless LAN presence discovery: an
// Advertiser that broadcasts a JSON presence datagram on a fixed
// cadence, and a Registry that observes broadcasts and accepts direct
// TCP registrations. Each role owns one reactor and is a suture.Service
// so external supervision can host it.
package discovery
