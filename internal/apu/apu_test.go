package apu

import "testing"

func TestFrameIRQFiresOnlyInFourStepMode(t *testing.T) {
	a := New()
	a.writeFrameCounter(0x00) // 4-step, IRQ enabled
	for i := 0; i < 29830; i++ {
		a.stepFrameCounter()
	}
	if !a.GetFrameIRQ() {
		t.Fatalf("expected frame IRQ to fire at the end of the 4-step sequence")
	}
}

func TestFrameIRQNeverFiresInFiveStepMode(t *testing.T) {
	a := New()
	a.writeFrameCounter(0x80) // 5-step, IRQ enabled (bit 6 clear)
	for i := 0; i < 40000; i++ {
		a.stepFrameCounter()
	}
	if a.GetFrameIRQ() {
		t.Fatalf("5-step mode should never set the frame IRQ flag")
	}
}

func TestWriteFrameCounterDisablingIRQClearsPendingFlag(t *testing.T) {
	a := New()
	a.writeFrameCounter(0x00)
	a.frameIRQFlag = true
	a.writeFrameCounter(0x40) // disable IRQ
	if a.GetFrameIRQ() {
		t.Fatalf("disabling frame IRQ should clear any pending flag")
	}
}

func TestPulseOutputSilentBelowTimerFloor(t *testing.T) {
	a := New()
	a.writePulseControl(&a.pulse1, 0x3F) // duty 0, constant volume 15
	a.writePulseTimerLow(&a.pulse1, 0x04)
	a.writePulseTimerHigh(&a.pulse1, 0x00) // timer = 4, below the 8 floor
	a.pulse1.dutyIndex = 1
	a.pulse1.sequencerPos = 1
	if got := a.getPulseOutput(&a.pulse1); got != 0 {
		t.Fatalf("pulse output = %d, want 0 (timer below audible range)", got)
	}
}

func TestPulseOutputSilentWhenLengthCounterExpired(t *testing.T) {
	a := New()
	a.writePulseControl(&a.pulse1, 0x3F)
	a.writePulseTimerLow(&a.pulse1, 0xFF)
	a.writePulseTimerHigh(&a.pulse1, 0x00)
	a.pulse1.lengthCounter = 0
	a.pulse1.sequencerPos = 1
	if got := a.getPulseOutput(&a.pulse1); got != 0 {
		t.Fatalf("pulse output = %d, want 0 with expired length counter", got)
	}
}

func TestChannelEnableClearsLengthCounterWhenDisabled(t *testing.T) {
	a := New()
	a.pulse1.lengthCounter = 20
	a.writeChannelEnable(0x00) // disable all channels
	if a.pulse1.lengthCounter != 0 {
		t.Fatalf("disabling a channel should zero its length counter")
	}
}

func TestMixChannelsProducesNormalizedOutput(t *testing.T) {
	a := New()
	sample := a.mixChannels(15, 15, 15)
	if sample <= 0 || sample >= 1 {
		t.Fatalf("mixed sample = %v, want in (0, 1)", sample)
	}
	if s := a.mixChannels(0, 0, 0); s != 0 {
		t.Fatalf("silent mix = %v, want 0", s)
	}
}

func TestGetSamplesDrainsAndClearsBuffer(t *testing.T) {
	a := New()
	a.sampleBuffer = append(a.sampleBuffer, 0.1, 0.2, 0.3)
	got := a.GetSamples()
	if len(got) != 3 {
		t.Fatalf("GetSamples returned %d samples, want 3", len(got))
	}
	if len(a.GetSamples()) != 0 {
		t.Fatalf("sample buffer should be empty after a drain")
	}
}

func TestTriangleOutputSilentWhenLinearCounterZero(t *testing.T) {
	a := New()
	a.triangle.lengthCounter = 10
	a.triangle.linearCounter = 0
	a.triangle.timer = 100
	if got := a.getTriangleOutput(&a.triangle); got != 0 {
		t.Fatalf("triangle output = %d, want 0 with linear counter at 0", got)
	}
}

func TestIsChannelEnabledRejectsOutOfRangeIndex(t *testing.T) {
	a := New()
	if a.IsChannelEnabled(-1) || a.IsChannelEnabled(3) {
		t.Fatalf("out-of-range channel indices should report disabled")
	}
}
