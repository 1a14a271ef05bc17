package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"

	"github.com/rl1809/supply-chain/internal/adapter/handler/rpc"
)

// Races many buyers for a single listed item against a running server. The
// buyers must be funded, e.g. SUPPLY_INITIAL_BALANCES=buyer-0:100,buyer-1:100,...
func main() {
	addr := flag.String("addr", "localhost:50051", "gRPC address of the registry")
	buyers := flag.Int("buyers", 50, "number of concurrent buyers")
	price := flag.Uint64("price", 10, "item price")
	flag.Parse()

	conn, err := grpc.NewClient(*addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		log.Fatalf("failed to connect: %v", err)
	}
	defer conn.Close()
	client := rpc.NewRegistryClient(conn)

	as := func(caller string) context.Context {
		ctx := context.Background()
		return metadata.AppendToOutgoingContext(ctx, rpc.CallerMetadataKey, caller)
	}

	added, err := client.AddItem(as("stress-seller"), &rpc.AddItemRequest{Name: "flash-item", Price: *price})
	if err != nil {
		log.Fatalf("failed to list item: %v", err)
	}
	if !added.Success {
		log.Fatalf("failed to list item: %s", added.Message)
	}

	// Counters
	var successCount atomic.Int32
	var stateCount atomic.Int32
	var otherCount atomic.Int32

	// Spawn concurrent requests
	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < *buyers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()

			resp, err := client.BuyItem(as(fmt.Sprintf("buyer-%d", id)), &rpc.BuyItemRequest{
				RequestId: uuid.NewString(),
				Sku:       added.Sku,
				Amount:    *price,
			})
			switch {
			case err != nil:
				otherCount.Add(1)
			case resp.Success:
				successCount.Add(1)
			case resp.Reason == "state":
				stateCount.Add(1)
			default:
				otherCount.Add(1)
			}
		}(i)
	}

	wg.Wait()
	elapsed := time.Since(start)

	// Results
	fmt.Println("========== STRESS TEST RESULTS ==========")
	fmt.Printf("Item SKU:         %d\n", added.Sku)
	fmt.Printf("Total Buyers:     %d\n", *buyers)
	fmt.Printf("Successful:       %d\n", successCount.Load())
	fmt.Printf("State Rejected:   %d\n", stateCount.Load())
	fmt.Printf("Other Failures:   %d\n", otherCount.Load())
	fmt.Printf("Duration:         %v\n", elapsed)
	fmt.Println("==========================================")

	// Assertions
	if successCount.Load() == 1 && stateCount.Load() == int32(*buyers-1) {
		fmt.Println("PASS: exactly one buyer won, the rest saw the item sold")
	} else {
		fmt.Printf("FAIL: expected 1 success/%d state rejections, got %d/%d\n",
			*buyers-1, successCount.Load(), stateCount.Load())
	}

	fetched, err := client.FetchItem(context.Background(), &rpc.SkuRequest{Sku: added.Sku})
	if err != nil || !fetched.Success {
		log.Fatalf("failed to fetch item: %v", err)
	}
	fmt.Printf("Final State:      %d, buyer %s\n", fetched.Item.State, fetched.Item.Buyer)
}
