// Package factory provides a small generic registry used to instantiate
// modules such as metrics sinks from configuration. A module is described by
// a type string and a map of raw settings; its factory decodes the settings
// with Decode and returns the concrete implementation.
//
//	reg := factory.NewRegistry[metrics.MetricsSink]()
//	reg.Register("mqtt", func(conf map[string]any) (metrics.MetricsSink, error) {
//	    var c mqtt.Config
//	    if err := factory.Decode(conf, &c); err != nil {
//	        return nil, err
//	    }
//	    return mqtt.NewSink(c)
//	})
package factory
