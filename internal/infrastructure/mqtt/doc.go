// Package mqtt provides the MQTT client used to talk to card readers and
// gate controllers.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Publishing with QoS and size checks
//   - Subscriptions that survive reconnects
//   - Last Will and Testament so controllers notice when the core is gone
//
// # Topics
//
//	smartconnect/reader/{uid}/access     reader → core  (card presented)
//	smartconnect/reader/{uid}/decision   core → reader  (permitted / denied)
//	smartconnect/barrier/{id}/state      core → gate    (retained open / closed)
//	smartconnect/system/status           core online / offline
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Subscribe(mqtt.Topics{}.AllReaderAccess(), 1, handler)
package mqtt
