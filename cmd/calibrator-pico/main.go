//go:build rp2040

// calibrator-pico is the instrument firmware: ADS1015 and MCP4725 on I2C0,
// operator console on UART0.
package main

import (
	"context"
	"machine"
	"time"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"

	"loopcal-go/bus"
	"loopcal-go/drivers/ads1015"
	"loopcal-go/drivers/mcp4725"
	"loopcal-go/services/calibrator"
	"loopcal-go/services/config"
	"loopcal-go/services/console"
	"loopcal-go/services/heartbeat"
	"loopcal-go/services/settings"
)

const (
	pinSDA     = machine.GPIO4
	pinSCL     = machine.GPIO5
	pinTX      = machine.GPIO0
	pinRX      = machine.GPIO1
	pinService = machine.GPIO15 // strap to GND at boot for service mode

	i2cHz    = 400_000
	baudRate = 115200

	chCurrent = 0
	chVoltage = 1

	// The front end scales 20 mA / 20 V to 80% of the ADS1015 range.
	inputFullScale = ads1015.MaxCode * 4 / 5
)

func bootMode() calibrator.DeviceMode {
	pinService.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	time.Sleep(time.Millisecond)
	if !pinService.Get() {
		return calibrator.ModeService
	}
	return calibrator.ModeNormal
}

func main() {
	// Allow USB CDC to enumerate before we print.
	time.Sleep(2 * time.Second)
	println("[main] loop calibrator boot")

	pinSDA.Configure(machine.PinConfig{Mode: machine.PinI2C})
	pinSCL.Configure(machine.PinConfig{Mode: machine.PinI2C})
	if err := machine.I2C0.Configure(machine.I2CConfig{SDA: pinSDA, SCL: pinSCL, Frequency: i2cHz}); err != nil {
		println("[main] i2c0:", err.Error())
	}
	_ = uartx.UART0.Configure(uartx.UARTConfig{BaudRate: baudRate, TX: pinTX, RX: pinRX})

	adc := ads1015.New(machine.I2C0)
	dac := mcp4725.New(machine.I2C0)
	if err := dac.SetEnabled(false); err != nil {
		println("[main] dac:", err.Error())
	}

	mode := bootMode()
	println("[main] mode", mode.String())

	ctx := context.WithValue(context.Background(), config.CtxDeviceKey, "pico")
	b := bus.NewBus(4)

	svc := calibrator.New(b.NewConnection("calibrator"),
		calibrator.Hardware{
			ADC:            adc,
			CurrentCh:      chCurrent,
			VoltageCh:      chVoltage,
			InputFullScale: inputFullScale,
			DAC:            dac,
		},
		settings.NewMemory(),
		calibrator.WithMode(mode),
	)
	go svc.Run(ctx)

	con := console.New(b.NewConnection("console"), uartx.UART0)
	go func() {
		if err := con.Run(ctx); err != nil {
			println("[main] console:", err.Error())
		}
	}()

	go heartbeat.New(b.NewConnection("heartbeat")).Run(ctx)

	if err := config.NewConfigService(nil).Publish(ctx, b.NewConnection("config")); err != nil {
		println("[main] config:", err.Error())
	}
	select {}
}
