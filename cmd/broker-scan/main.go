// Command broker-scan browses mDNS for MQTT brokers on the local network.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rjboer/jsonplot/internal/discovery"
)

func main() {
	timeout := flag.Int("timeout", 5, "Timeout in seconds")
	flag.Parse()

	fmt.Println("===============================================================")
	fmt.Println(" mDNS / DNS-SD Broker Discovery")
	fmt.Println("===============================================================")
	fmt.Printf(" Service : _mqtt._tcp.local\n")
	fmt.Printf(" Timeout : %d seconds\n", *timeout)
	fmt.Println("---------------------------------------------------------------")

	start := time.Now()
	brokers, err := discovery.Brokers(time.Duration(*timeout) * time.Second)
	duration := time.Since(start)

	if err != nil {
		fmt.Fprintf(os.Stderr, "Discovery error: %v\n", err)
		os.Exit(1)
	}

	if len(brokers) == 0 {
		fmt.Printf("No brokers found (%s)\n", duration.Truncate(time.Millisecond))
		return
	}

	fmt.Printf("Discovered %d broker(s) in %s\n",
		len(brokers), duration.Truncate(time.Millisecond))
	fmt.Println("===============================================================")

	for i, b := range brokers {
		fmt.Printf(" Broker #%d\n", i+1)
		fmt.Println("---------------------------------------------------------------")
		fmt.Printf(" Instance : %s\n", b.Instance)
		fmt.Printf(" Hostname : %s\n", b.Hostname)
		fmt.Printf(" Port     : %d\n", b.Port)

		fmt.Println(" Addresses:")
		if len(b.Addresses) == 0 {
			fmt.Println("   <none>")
		} else {
			for _, ip := range b.Addresses {
				fmt.Printf("   - %s\n", ip.String())
			}
		}

		fmt.Println(" Connection hints:")
		for _, ip := range b.Addresses {
			if ip.To4() != nil {
				fmt.Printf("   - tcp://%s:%d\n", ip.String(), b.Port)
			} else {
				fmt.Printf("   - tcp://[%s]:%d\n", ip.String(), b.Port)
			}
		}

		fmt.Println("===============================================================")
	}
}
