// Package discovery finds and advertises log collectors over mDNS.
//
// A collector started with `medentry collect` registers itself as a
// "_medentry-logs._tcp" service. Forms whose config sets
// logging.remote_url to "auto" browse for that service at startup and ship
// their diagnostics to the first collector that answers.
//
// # Usage Example
//
//	// Advertise a collector listening on port 9300
//	stop, err := discovery.Advertise("lab-pc", 9300, discovery.AdvertiseOptions{})
//	if err != nil {
//	    return err
//	}
//	defer stop()
//
//	// Elsewhere: find it
//	c, err := discovery.NewScanner().FindFirst(ctx)
//	if err != nil {
//	    return err
//	}
//	sink := logging.NewRemoteSink(c.URL())
//
// # Network Requirements
//
// - Requires multicast support on the network interface
// - Collector and form must be on the same network segment
// - Firewall must allow mDNS (UDP port 5353)
package discovery
